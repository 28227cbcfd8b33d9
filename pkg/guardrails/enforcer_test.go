package guardrails

import (
	"testing"
	"time"
)

func newTestEnforcer(now *time.Time) *Enforcer {
	e := NewEnforcer(DefaultSettings())
	e.now = func() time.Time { return *now }
	return e
}

func TestAdmitConfiguration_AllowedKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEnforcer(&now)

	if err := e.AdmitConfiguration("EVSE001", "HeartbeatInterval"); err != nil {
		t.Fatalf("AdmitConfiguration() error = %v", err)
	}
}

func TestAdmitConfiguration_UnknownKeyRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEnforcer(&now)

	err := e.AdmitConfiguration("EVSE001", "AuthorizationCacheEnabled")
	if err == nil {
		t.Fatal("AdmitConfiguration() expected error for key outside the allowed set")
	}
	if !IsValidationError(err) {
		t.Errorf("AdmitConfiguration() error = %T, want *ValidationError", err)
	}

	// A rejected key must not consume rate limit budget.
	for i := 0; i < DefaultSettings().MaxConfig; i++ {
		if err := e.AdmitConfiguration("EVSE001", "PowerLimit"); err != nil {
			t.Fatalf("AdmitConfiguration() call %d error = %v", i+1, err)
		}
	}
}

func TestAdmitConfiguration_GenericKeysOptIn(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	settings := DefaultSettings()
	settings.AllowGenericConfig = true
	e := NewEnforcer(settings)
	e.now = func() time.Time { return now }

	if err := e.AdmitConfiguration("EVSE001", "AuthorizationCacheEnabled"); err != nil {
		t.Fatalf("AdmitConfiguration() error = %v", err)
	}
}

func TestAdmitPowerLimit_Bounds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		kw   float64
		ok   bool
	}{
		{"below minimum", 0.5, false},
		{"at minimum", 1.0, true},
		{"mid range", 11.0, true},
		{"at maximum", 22.0, true},
		{"above maximum", 22.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnforcer(&now)
			err := e.AdmitPowerLimit("EVSE001", tt.kw)
			if tt.ok && err != nil {
				t.Errorf("AdmitPowerLimit(%v) error = %v", tt.kw, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("AdmitPowerLimit(%v) expected error", tt.kw)
				}
				if !IsValidationError(err) {
					t.Errorf("AdmitPowerLimit(%v) error = %T, want *ValidationError", tt.kw, err)
				}
			}
		})
	}
}

func TestAdmit_RateLimitPerDeviceAndCategory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEnforcer(&now)

	for i := 0; i < 5; i++ {
		if err := e.AdmitConfiguration("EVSE001", "PowerLimit"); err != nil {
			t.Fatalf("AdmitConfiguration() call %d error = %v", i+1, err)
		}
	}

	err := e.AdmitConfiguration("EVSE001", "PowerLimit")
	if err == nil {
		t.Fatal("AdmitConfiguration() expected rate limit on 6th call")
	}
	rl, ok := err.(*RateLimitedError)
	if !ok {
		t.Fatalf("AdmitConfiguration() error = %T, want *RateLimitedError", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > 60*time.Second {
		t.Errorf("RetryAfter = %v, want within (0, 60s]", rl.RetryAfter)
	}

	// Other categories and other devices keep their own budget.
	if err := e.AdmitPowerLimit("EVSE001", 10); err != nil {
		t.Errorf("AdmitPowerLimit() error = %v, power budget must be independent", err)
	}
	if err := e.AdmitConfiguration("EVSE002", "PowerLimit"); err != nil {
		t.Errorf("AdmitConfiguration() error = %v, other devices must be unaffected", err)
	}
}

func TestAdmit_WindowExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEnforcer(&now)

	for i := 0; i < 5; i++ {
		if err := e.AdmitConfiguration("EVSE001", "PowerLimit"); err != nil {
			t.Fatalf("AdmitConfiguration() call %d error = %v", i+1, err)
		}
	}
	if err := e.AdmitConfiguration("EVSE001", "PowerLimit"); err == nil {
		t.Fatal("AdmitConfiguration() expected rate limit before window expiry")
	}

	// After the window slides past the oldest entries the budget is back.
	now = now.Add(61 * time.Second)
	if err := e.AdmitConfiguration("EVSE001", "PowerLimit"); err != nil {
		t.Errorf("AdmitConfiguration() error = %v after window expiry", err)
	}
}

func TestAdmit_RetryAfterHint(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEnforcer(&now)

	for i := 0; i < 5; i++ {
		if err := e.AdmitPowerLimit("EVSE001", 10); err != nil {
			t.Fatalf("AdmitPowerLimit() call %d error = %v", i+1, err)
		}
		now = now.Add(time.Second)
	}

	// The oldest admit was 5s ago, so the window frees up in 55s.
	err := e.AdmitPowerLimit("EVSE001", 10)
	rl, ok := err.(*RateLimitedError)
	if !ok {
		t.Fatalf("AdmitPowerLimit() error = %T, want *RateLimitedError", err)
	}
	if rl.RetryAfter != 55*time.Second {
		t.Errorf("RetryAfter = %v, want 55s", rl.RetryAfter)
	}
}
