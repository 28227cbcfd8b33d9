package centralsystem

import "testing"

func TestRegistry_NewestConnectionWins(t *testing.T) {
	r := NewRegistry()

	first := &Session{deviceID: "EVSE001"}
	second := &Session{deviceID: "EVSE001"}
	third := &Session{deviceID: "EVSE001"}

	if prior := r.Register("EVSE001", first); prior != nil {
		t.Errorf("Register() prior = %v, want nil for first connect", prior)
	}
	if prior := r.Register("EVSE001", second); prior != first {
		t.Errorf("Register() prior = %v, want the first session", prior)
	}
	if prior := r.Register("EVSE001", third); prior != second {
		t.Errorf("Register() prior = %v, want the second session", prior)
	}

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1 live session per device", r.Count())
	}
	got, ok := r.Lookup("EVSE001")
	if !ok || got != third {
		t.Errorf("Lookup() = %v, %v, want the newest session", got, ok)
	}
}

func TestRegistry_UnregisterIsConditional(t *testing.T) {
	r := NewRegistry()

	old := &Session{deviceID: "EVSE001"}
	replacement := &Session{deviceID: "EVSE001"}

	r.Register("EVSE001", old)
	r.Register("EVSE001", replacement)

	// The replaced session exits late and must not remove its successor.
	if r.Unregister("EVSE001", old) {
		t.Error("Unregister() = true for a replaced session")
	}
	if got, ok := r.Lookup("EVSE001"); !ok || got != replacement {
		t.Errorf("Lookup() = %v, %v, want the replacement to survive", got, ok)
	}

	if !r.Unregister("EVSE001", replacement) {
		t.Error("Unregister() = false for the live session")
	}
	if _, ok := r.Lookup("EVSE001"); ok {
		t.Error("Lookup() = true after unregistering the live session")
	}
}

func TestRegistry_DeviceIDsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"EVSE003", "EVSE001", "EVSE002"} {
		r.Register(id, &Session{deviceID: id})
	}

	ids := r.DeviceIDs()
	want := []string{"EVSE001", "EVSE002", "EVSE003"}
	if len(ids) != len(want) {
		t.Fatalf("DeviceIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("DeviceIDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
