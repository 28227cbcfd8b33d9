package scenario

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

// Step identifiers of the profile mismatch runbook. The three
// configuration fixes and the soft reset gate resolution; the two status
// checks are informational and only tracked for progress reporting.
const (
	stepCheckStatus  = "check_status"
	stepConfigPrefix = "config:"
	stepResetSoft    = "reset_soft"
	stepVerifyStatus = "verify_status"
)

// requiredConfiguration maps each misconfigured key to the value that
// clears it.
var requiredConfiguration = map[string]string{
	"ChargingProfileMaxStackLevel": "1",
	"ChargingScheduleMaxPeriods":   "100",
	"MaxChargingProfilesInstalled": "1",
}

// profileMismatchSteps is the runbook in presentation order.
var profileMismatchSteps = []string{
	stepCheckStatus,
	stepConfigPrefix + "ChargingProfileMaxStackLevel",
	stepConfigPrefix + "ChargingScheduleMaxPeriods",
	stepConfigPrefix + "MaxChargingProfilesInstalled",
	stepResetSoft,
	stepVerifyStatus,
}

type state struct {
	kind      Kind
	startedAt time.Time
	completed map[string]bool
}

// Engine drives scripted fault scenarios per device. A device has at most
// one active scenario; triggering replaces any prior one. Step bookkeeping
// is a compound read-modify-write and runs under the engine lock.
type Engine struct {
	status storage.StatusStore

	mu     sync.Mutex
	active map[string]*state
}

func NewEngine(status storage.StatusStore) *Engine {
	return &Engine{
		status: status,
		active: make(map[string]*state),
	}
}

// Trigger activates a scenario for the device.
func (e *Engine) Trigger(kind Kind, deviceID string) error {
	e.mu.Lock()
	e.active[deviceID] = &state{
		kind:      kind,
		startedAt: time.Now().UTC(),
		completed: make(map[string]bool),
	}
	e.mu.Unlock()

	log.Infof("scenario: triggered '%s' for device '%s'", kind, deviceID)

	if kind == KindStuckCharging {
		// The device must appear Charging until the scenario is cleared.
		return e.status.Set(&model.Status{
			DeviceID:    deviceID,
			ConnectorID: 1,
			Status:      model.StatusCharging,
			ErrorCode:   "NoError",
		})
	}

	return nil
}

// Clear deactivates the device's scenario, if any.
func (e *Engine) Clear(deviceID string) {
	e.mu.Lock()
	st, ok := e.active[deviceID]
	delete(e.active, deviceID)
	e.mu.Unlock()

	if !ok {
		return
	}

	log.Infof("scenario: cleared '%s' for device '%s'", st.kind, deviceID)

	if st.kind == KindStuckCharging {
		if err := e.status.Set(&model.Status{
			DeviceID:    deviceID,
			ConnectorID: 1,
			Status:      model.StatusAvailable,
			ErrorCode:   "NoError",
		}); err != nil {
			log.Errorf("scenario: failed to restore status for device '%s': %v", deviceID, err)
		}
	}
}

// ClearAll deactivates every scenario.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	deviceIDs := make([]string, 0, len(e.active))
	for id := range e.active {
		deviceIDs = append(deviceIDs, id)
	}
	e.mu.Unlock()

	for _, id := range deviceIDs {
		e.Clear(id)
	}
}

// ActiveKind reports the device's active scenario.
func (e *Engine) ActiveKind(deviceID string) (Kind, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok {
		return "", false
	}
	return st.kind, true
}

// ObserveConfiguration records a configuration change that passed the
// guarded path. The latest observed value per key is authoritative: a
// correct value completes the step, a later incorrect value removes the
// completion again. Keys outside the required set are ignored.
func (e *Engine) ObserveConfiguration(deviceID, key, value string) {
	required, relevant := requiredConfiguration[key]
	if !relevant {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok || st.kind != KindProfileMismatch {
		return
	}

	step := stepConfigPrefix + key
	if value == required {
		if !st.completed[step] {
			st.completed[step] = true
			log.Infof("scenario: device '%s' completed step '%s'", deviceID, step)
		}
	} else if st.completed[step] {
		delete(st.completed, step)
		log.Warnf("scenario: device '%s' regressed step '%s' (value '%s')", deviceID, step, value)
	}
}

// ObserveReset records a reset that passed the guarded path. Only a soft
// reset counts toward the profile mismatch runbook.
func (e *Engine) ObserveReset(deviceID, resetType string) {
	if resetType != "Soft" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok || st.kind != KindProfileMismatch {
		return
	}

	if !st.completed[stepResetSoft] {
		st.completed[stepResetSoft] = true
		log.Infof("scenario: device '%s' completed step '%s'", deviceID, stepResetSoft)
	}
}

// ObserveStatusQuery records a status inspection. The first inspection
// marks the diagnostic check; an inspection after resolution marks the
// final verification.
func (e *Engine) ObserveStatusQuery(deviceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok || st.kind != KindProfileMismatch {
		return
	}

	if !st.completed[stepCheckStatus] {
		st.completed[stepCheckStatus] = true
		return
	}

	if resolved(st) && !st.completed[stepVerifyStatus] {
		st.completed[stepVerifyStatus] = true
	}
}

// ObserveAvailabilityChange records a forced availability change, which
// escalates a stuck session and clears it as a side effect.
func (e *Engine) ObserveAvailabilityChange(deviceID string) {
	e.mu.Lock()
	st, ok := e.active[deviceID]
	stuck := ok && st.kind == KindStuckCharging
	e.mu.Unlock()

	if stuck {
		log.Infof("scenario: availability change escalation clears stuck session for device '%s'", deviceID)
		e.Clear(deviceID)
	}
}

// StatusOverride reports the display value a scenario forces on every
// status read, if any.
func (e *Engine) StatusOverride(deviceID string) (*model.Status, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok || st.kind != KindStuckCharging {
		return nil, false
	}

	return &model.Status{
		DeviceID:    deviceID,
		ConnectorID: 1,
		Status:      model.StatusCharging,
		ErrorCode:   "NoError",
	}, true
}

// SuppressStop reports whether the normal effect of a stop command is
// suppressed for the device.
func (e *Engine) SuppressStop(deviceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	return ok && st.kind == KindStuckCharging
}

// ForceAuthFailure reports whether Authorize must answer Invalid for the
// device regardless of the whitelist.
func (e *Engine) ForceAuthFailure(deviceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	return ok && st.kind == KindAuthFailure
}

// resolved reports whether the remediation checklist is complete. Callers
// hold e.mu.
func resolved(st *state) bool {
	if st.kind != KindProfileMismatch {
		return false
	}
	for key := range requiredConfiguration {
		if !st.completed[stepConfigPrefix+key] {
			return false
		}
	}
	return st.completed[stepResetSoft]
}

// Progress is the externally visible state of a device's scenario.
type Progress struct {
	Status         string `json:"status"`
	ScenarioType   string `json:"scenario_type,omitempty"`
	Progress       string `json:"progress,omitempty"`
	CompletedSteps []int  `json:"completed_steps,omitempty"`
	NextStep       *int   `json:"next_step,omitempty"`
}

// ProgressFor reports the remediation progress of the device's active
// scenario. A resolved scenario stays active until explicitly cleared.
func (e *Engine) ProgressFor(deviceID string) Progress {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.active[deviceID]
	if !ok {
		return Progress{Status: "not_active"}
	}

	if st.kind != KindProfileMismatch {
		return Progress{Status: "active", ScenarioType: st.kind.String()}
	}

	completed := make([]int, 0, len(st.completed))
	for i, step := range profileMismatchSteps {
		if st.completed[step] {
			completed = append(completed, i+1)
		}
	}
	sort.Ints(completed)

	p := Progress{
		Status:         "active",
		ScenarioType:   st.kind.String(),
		Progress:       fmt.Sprintf("%d/%d", len(completed), len(profileMismatchSteps)),
		CompletedSteps: completed,
	}
	if resolved(st) {
		p.Status = "resolved"
	}

	for i, step := range profileMismatchSteps {
		if !st.completed[step] {
			next := i + 1
			p.NextStep = &next
			break
		}
	}

	return p
}

// ResolvedDevices lists the devices whose active scenario has reached
// resolution.
func (e *Engine) ResolvedDevices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0)
	for id, st := range e.active {
		if resolved(st) {
			out = append(out, id)
		}
	}
	sort.Strings(out)

	return out
}

// ActiveScenarios lists the active scenario kinds per device.
func (e *Engine) ActiveScenarios() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]string, len(e.active))
	for id, st := range e.active {
		out[id] = st.kind.String()
	}

	return out
}

// ResolutionStep describes one entry of the profile mismatch runbook for
// the front door.
type ResolutionStep struct {
	Step           int               `json:"step"`
	Action         string            `json:"action"`
	Parameters     map[string]string `json:"parameters,omitempty"`
	Description    string            `json:"description"`
	ExpectedResult string            `json:"expected_result"`
}

// ResolutionSteps lists the runbook that clears the profile mismatch
// scenario.
func ResolutionSteps() []ResolutionStep {
	return []ResolutionStep{
		{
			Step:           1,
			Action:         "get_status",
			Description:    "Check current charger status and power delivery",
			ExpectedResult: "Confirm low power delivery (3.5kW vs expected 22kW)",
		},
		{
			Step:           2,
			Action:         "change_configuration",
			Parameters:     map[string]string{"key": "ChargingProfileMaxStackLevel", "value": "1"},
			Description:    "Fix charging profile stack level configuration",
			ExpectedResult: "Configuration updated successfully",
		},
		{
			Step:           3,
			Action:         "change_configuration",
			Parameters:     map[string]string{"key": "ChargingScheduleMaxPeriods", "value": "100"},
			Description:    "Fix charging schedule periods configuration",
			ExpectedResult: "Configuration updated successfully",
		},
		{
			Step:           4,
			Action:         "change_configuration",
			Parameters:     map[string]string{"key": "MaxChargingProfilesInstalled", "value": "1"},
			Description:    "Fix maximum charging profiles configuration",
			ExpectedResult: "Configuration updated successfully",
		},
		{
			Step:           5,
			Action:         "reset_charge_point",
			Parameters:     map[string]string{"type": "Soft"},
			Description:    "Reset charger to apply new configuration",
			ExpectedResult: "Charger reset successfully",
		},
		{
			Step:           6,
			Action:         "get_status",
			Description:    "Verify power delivery is now at expected level",
			ExpectedResult: "Power delivery increased to 22kW",
		},
	}
}
