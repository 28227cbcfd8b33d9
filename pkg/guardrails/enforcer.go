package guardrails

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Category is a guarded action class with its own rate window.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryPower         Category = "power"
)

func (c Category) String() string {
	return string(c)
}

// Settings carries the environment-level guardrail configuration.
type Settings struct {
	// AllowGenericConfig permits configuration keys outside AllowedKeys.
	AllowGenericConfig bool
	AllowedKeys        []string

	MinKW float64
	MaxKW float64

	Window    time.Duration
	MaxConfig int
	MaxPower  int
}

// DefaultSettings mirror the demo deployment defaults.
func DefaultSettings() Settings {
	return Settings{
		AllowGenericConfig: false,
		AllowedKeys: []string{
			"ChargingProfileMaxStackLevel",
			"ChargingScheduleMaxPeriods",
			"MaxChargingProfilesInstalled",
			"HeartbeatInterval",
			"MeterValueSampleInterval",
			"PowerLimit",
		},
		MinKW:     1.0,
		MaxKW:     22.0,
		Window:    60 * time.Second,
		MaxConfig: 5,
		MaxPower:  5,
	}
}

// Enforcer validates every command-issuing call before it reaches the
// correlator: an allowlist check for configuration changes, a range check
// for power changes and a per-device sliding-window rate check per
// category. It never mutates protocol state.
type Enforcer struct {
	settings Settings
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]map[Category][]time.Time
}

func NewEnforcer(settings Settings) *Enforcer {
	return &Enforcer{
		settings: settings,
		now:      time.Now,
		windows:  make(map[string]map[Category][]time.Time),
	}
}

// AdmitConfiguration runs the allowlist and rate checks for a configuration
// change on the given device.
func (e *Enforcer) AdmitConfiguration(deviceID, key string) error {
	if !e.settings.AllowGenericConfig && !e.isAllowedKey(key) {
		log.Warnf("guardrails: rejected configuration key '%s' for device '%s'", key, deviceID)
		return NewValidationError("key",
			fmt.Sprintf("'%s' is not in the allowed configuration key set", key))
	}

	return e.admit(deviceID, CategoryConfiguration, e.settings.MaxConfig)
}

// AdmitPowerLimit runs the range and rate checks for a power limit change
// on the given device. Bounds are inclusive.
func (e *Enforcer) AdmitPowerLimit(deviceID string, kw float64) error {
	if kw < e.settings.MinKW || kw > e.settings.MaxKW {
		log.Warnf("guardrails: rejected power limit %.2f kW for device '%s'", kw, deviceID)
		return NewValidationError("kw",
			fmt.Sprintf("%.2f is outside the allowed range [%.2f, %.2f]",
				kw, e.settings.MinKW, e.settings.MaxKW))
	}

	return e.admit(deviceID, CategoryPower, e.settings.MaxPower)
}

// admit prunes the device's window for the category and admits the call if
// the pruned count is below max, appending the current timestamp. The
// prune-then-append sequence is a compound read-modify-write and runs under
// the enforcer lock so concurrent guarded commands cannot lose updates.
func (e *Enforcer) admit(deviceID string, category Category, max int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	cutoff := now.Add(-e.settings.Window)

	byCategory, ok := e.windows[deviceID]
	if !ok {
		byCategory = make(map[Category][]time.Time)
		e.windows[deviceID] = byCategory
	}

	events := byCategory[category]
	pruned := events[:0]
	for _, t := range events {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}

	if len(pruned) >= max {
		retryAfter := pruned[0].Add(e.settings.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		byCategory[category] = pruned
		log.Warnf("guardrails: rate limited %s command for device '%s'", category, deviceID)
		return NewRateLimitedError(category, retryAfter)
	}

	byCategory[category] = append(pruned, now)

	return nil
}

func (e *Enforcer) isAllowedKey(key string) bool {
	for _, k := range e.settings.AllowedKeys {
		if k == key {
			return true
		}
	}
	return false
}
