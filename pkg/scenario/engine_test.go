package scenario

import (
	"testing"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage/memory"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(memory.NewStore().Status())
}

func resolveMismatch(e *Engine, deviceID string) {
	e.ObserveConfiguration(deviceID, "ChargingProfileMaxStackLevel", "1")
	e.ObserveConfiguration(deviceID, "ChargingScheduleMaxPeriods", "100")
	e.ObserveConfiguration(deviceID, "MaxChargingProfilesInstalled", "1")
	e.ObserveReset(deviceID, "Soft")
}

func TestProfileMismatch_ResolutionOrderIndependent(t *testing.T) {
	type obs struct{ key, value string }
	fixes := []obs{
		{"ChargingProfileMaxStackLevel", "1"},
		{"ChargingScheduleMaxPeriods", "100"},
		{"MaxChargingProfilesInstalled", "1"},
	}

	orders := [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 0, 2},
	}

	for _, order := range orders {
		e := newTestEngine(t)
		if err := e.Trigger(KindProfileMismatch, "EVSE003"); err != nil {
			t.Fatalf("Trigger() error = %v", err)
		}

		// The soft reset may even arrive before the last fix lands.
		e.ObserveReset("EVSE003", "Soft")
		for _, i := range order {
			e.ObserveConfiguration("EVSE003", fixes[i].key, fixes[i].value)
		}

		p := e.ProgressFor("EVSE003")
		if p.Status != "resolved" {
			t.Errorf("order %v: status = %q, want resolved", order, p.Status)
		}
	}
}

func TestProfileMismatch_HardResetDoesNotCount(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE003")

	e.ObserveConfiguration("EVSE003", "ChargingProfileMaxStackLevel", "1")
	e.ObserveConfiguration("EVSE003", "ChargingScheduleMaxPeriods", "100")
	e.ObserveConfiguration("EVSE003", "MaxChargingProfilesInstalled", "1")
	e.ObserveReset("EVSE003", "Hard")

	if p := e.ProgressFor("EVSE003"); p.Status != "active" {
		t.Errorf("status = %q, want active after hard reset only", p.Status)
	}

	e.ObserveReset("EVSE003", "Soft")
	if p := e.ProgressFor("EVSE003"); p.Status != "resolved" {
		t.Errorf("status = %q, want resolved after soft reset", p.Status)
	}
}

func TestProfileMismatch_WrongValueReopensStep(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE003")

	resolveMismatch(e, "EVSE003")
	if p := e.ProgressFor("EVSE003"); p.Status != "resolved" {
		t.Fatalf("status = %q, want resolved", p.Status)
	}

	// The latest value per key wins: a later wrong write regresses the step.
	e.ObserveConfiguration("EVSE003", "ChargingScheduleMaxPeriods", "5")
	if p := e.ProgressFor("EVSE003"); p.Status != "active" {
		t.Errorf("status = %q, want active after regression", p.Status)
	}

	e.ObserveConfiguration("EVSE003", "ChargingScheduleMaxPeriods", "100")
	if p := e.ProgressFor("EVSE003"); p.Status != "resolved" {
		t.Errorf("status = %q, want resolved after correcting again", p.Status)
	}
}

func TestProfileMismatch_IrrelevantKeysIgnored(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE003")

	e.ObserveConfiguration("EVSE003", "HeartbeatInterval", "30")
	p := e.ProgressFor("EVSE003")
	if len(p.CompletedSteps) != 0 {
		t.Errorf("CompletedSteps = %v, want none for irrelevant keys", p.CompletedSteps)
	}
}

func TestProfileMismatch_ProgressDisplay(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE003")

	p := e.ProgressFor("EVSE003")
	if p.Progress != "0/6" {
		t.Errorf("Progress = %q, want 0/6", p.Progress)
	}
	if p.NextStep == nil || *p.NextStep != 1 {
		t.Errorf("NextStep = %v, want 1", p.NextStep)
	}

	e.ObserveStatusQuery("EVSE003")
	e.ObserveConfiguration("EVSE003", "ChargingProfileMaxStackLevel", "1")

	p = e.ProgressFor("EVSE003")
	if p.Progress != "2/6" {
		t.Errorf("Progress = %q, want 2/6", p.Progress)
	}
	if len(p.CompletedSteps) != 2 || p.CompletedSteps[0] != 1 || p.CompletedSteps[1] != 2 {
		t.Errorf("CompletedSteps = %v, want [1 2]", p.CompletedSteps)
	}
	if p.NextStep == nil || *p.NextStep != 3 {
		t.Errorf("NextStep = %v, want 3", p.NextStep)
	}

	// Full runbook including the closing status verification.
	resolveMismatch(e, "EVSE003")
	e.ObserveStatusQuery("EVSE003")

	p = e.ProgressFor("EVSE003")
	if p.Status != "resolved" {
		t.Errorf("status = %q, want resolved", p.Status)
	}
	if p.Progress != "6/6" {
		t.Errorf("Progress = %q, want 6/6", p.Progress)
	}
	if p.NextStep != nil {
		t.Errorf("NextStep = %v, want nil when complete", *p.NextStep)
	}
}

func TestProgressFor_NotActive(t *testing.T) {
	e := newTestEngine(t)
	if p := e.ProgressFor("EVSE001"); p.Status != "not_active" {
		t.Errorf("status = %q, want not_active", p.Status)
	}
}

func TestStuckCharging_OverrideAndClear(t *testing.T) {
	store := memory.NewStore()
	e := NewEngine(store.Status())

	if err := e.Trigger(KindStuckCharging, "EVSE002"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	override, ok := e.StatusOverride("EVSE002")
	if !ok {
		t.Fatal("StatusOverride() = false, want an override while stuck")
	}
	if override.Status != model.StatusCharging {
		t.Errorf("override status = %q, want Charging", override.Status)
	}
	if !e.SuppressStop("EVSE002") {
		t.Error("SuppressStop() = false, want true while stuck")
	}

	st, err := store.Status().FindByDeviceID("EVSE002")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if st.Status != model.StatusCharging {
		t.Errorf("stored status = %q, want Charging", st.Status)
	}

	e.Clear("EVSE002")

	if _, ok := e.StatusOverride("EVSE002"); ok {
		t.Error("StatusOverride() = true after clear")
	}
	st, err = store.Status().FindByDeviceID("EVSE002")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if st.Status != model.StatusAvailable {
		t.Errorf("stored status = %q, want Available after clear", st.Status)
	}
}

func TestStuckCharging_AvailabilityChangeEscalation(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindStuckCharging, "EVSE002")

	e.ObserveAvailabilityChange("EVSE002")

	if _, ok := e.ActiveKind("EVSE002"); ok {
		t.Error("ActiveKind() = true, want scenario cleared by availability escalation")
	}
}

func TestAuthFailure_ForcesInvalid(t *testing.T) {
	e := newTestEngine(t)

	if e.ForceAuthFailure("EVSE001") {
		t.Error("ForceAuthFailure() = true without an active scenario")
	}

	e.Trigger(KindAuthFailure, "EVSE001")
	if !e.ForceAuthFailure("EVSE001") {
		t.Error("ForceAuthFailure() = false while the scenario is active")
	}

	// The auth failure scenario must not touch status reads or stops.
	if _, ok := e.StatusOverride("EVSE001"); ok {
		t.Error("StatusOverride() = true for auth failure scenario")
	}
	if e.SuppressStop("EVSE001") {
		t.Error("SuppressStop() = true for auth failure scenario")
	}
}

func TestTrigger_ReplacesPriorScenario(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE003")
	resolveMismatch(e, "EVSE003")

	e.Trigger(KindAuthFailure, "EVSE003")

	kind, ok := e.ActiveKind("EVSE003")
	if !ok || kind != KindAuthFailure {
		t.Errorf("ActiveKind() = %q, %v, want auth_failure", kind, ok)
	}
	if p := e.ProgressFor("EVSE003"); p.Status != "active" || p.Progress != "" {
		t.Errorf("progress = %+v, want plain active state after replacement", p)
	}
}

func TestClearAll(t *testing.T) {
	e := newTestEngine(t)
	e.Trigger(KindProfileMismatch, "EVSE001")
	e.Trigger(KindStuckCharging, "EVSE002")
	e.Trigger(KindAuthFailure, "EVSE003")

	e.ClearAll()

	if got := e.ActiveScenarios(); len(got) != 0 {
		t.Errorf("ActiveScenarios() = %v, want empty", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"charging_profile_mismatch", "stuck_charging", "auth_failure"} {
		if _, err := ParseKind(name); err != nil {
			t.Errorf("ParseKind(%q) error = %v", name, err)
		}
	}

	_, err := ParseKind("connector_on_fire")
	if err == nil {
		t.Fatal("ParseKind() expected error for unknown scenario")
	}
	if !IsUnknownScenarioError(err) {
		t.Errorf("ParseKind() error = %T, want *UnknownScenarioError", err)
	}
}
