package memory

import (
	"testing"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

func TestStatusStore_LastWriterWins(t *testing.T) {
	s := NewStore().Status()

	if err := s.Set(&model.Status{DeviceID: "EVSE001", ConnectorID: 1, Status: model.StatusAvailable, ErrorCode: "NoError"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(&model.Status{DeviceID: "EVSE001", ConnectorID: 1, Status: model.StatusCharging, ErrorCode: "NoError"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	m, err := s.FindByDeviceID("EVSE001")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if m.Status != model.StatusCharging {
		t.Errorf("Status = %q, want the latest write", m.Status)
	}
	if m.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero, want a write timestamp")
	}
}

func TestStatusStore_NotFound(t *testing.T) {
	s := NewStore().Status()

	if _, err := s.FindByDeviceID("EVSE999"); err != storage.ErrNotFound {
		t.Errorf("FindByDeviceID() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete("EVSE999"); err != storage.ErrNotFound {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestHeartbeatStore_Touch(t *testing.T) {
	s := NewStore().Heartbeats()

	if _, err := s.FindByDeviceID("EVSE001"); err != storage.ErrNotFound {
		t.Fatalf("FindByDeviceID() error = %v, want ErrNotFound before first touch", err)
	}

	if err := s.Touch("EVSE001"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	m, err := s.FindByDeviceID("EVSE001")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if m.LastSeen.IsZero() {
		t.Error("LastSeen is zero after touch")
	}
}

func TestPowerLimitStore_DefaultAndConnectorScopes(t *testing.T) {
	s := NewStore().PowerLimits()

	if err := s.SetDefault("EVSE001", 11.0); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	if err := s.SetConnector("EVSE001", 2, 7.4); err != nil {
		t.Fatalf("SetConnector() error = %v", err)
	}

	m, err := s.FindByDeviceID("EVSE001")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if !m.HasDefault || m.DefaultKW != 11.0 {
		t.Errorf("default = %v/%v, want 11.0", m.HasDefault, m.DefaultKW)
	}
	if m.ConnectorKW[2] != 7.4 {
		t.Errorf("connector 2 = %v, want 7.4", m.ConnectorKW[2])
	}

	// The returned value is a copy, mutating it must not leak back.
	m.ConnectorKW[2] = 99
	m2, _ := s.FindByDeviceID("EVSE001")
	if m2.ConnectorKW[2] != 7.4 {
		t.Errorf("connector 2 = %v after caller mutation, want 7.4", m2.ConnectorKW[2])
	}
}

func TestAuditStore_AppendOnlyOrdering(t *testing.T) {
	s := NewStore().Audit()

	for _, action := range []string{"reset", "change_configuration", "remote_stop"} {
		if err := s.Append(&model.AuditEntry{DeviceID: "EVSE001", Actor: "api", Action: action}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := s.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, want := range []string{"reset", "change_configuration", "remote_stop"} {
		if entries[i].Action != want {
			t.Errorf("entries[%d].Action = %q, want %q", i, entries[i].Action, want)
		}
		if entries[i].ID != int32(i+1) {
			t.Errorf("entries[%d].ID = %d, want %d", i, entries[i].ID, i+1)
		}
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	entries, _ = s.FetchAll()
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d after reset, want 0", len(entries))
	}
}

func TestAuditStore_FindByDeviceID(t *testing.T) {
	s := NewStore().Audit()

	s.Append(&model.AuditEntry{DeviceID: "EVSE001", Actor: "api", Action: "reset"})
	s.Append(&model.AuditEntry{DeviceID: "EVSE002", Actor: "api", Action: "reset"})
	s.Append(&model.AuditEntry{DeviceID: "EVSE001", Actor: "operator", Action: "remote_stop"})

	entries, err := s.FindByDeviceID("EVSE001")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestAuthorizationStore_SeededWhitelist(t *testing.T) {
	s := NewStore().Authorizations()

	for _, tag := range []string{"USER123", "DEMO001"} {
		ok, err := s.IsAccepted(tag)
		if err != nil {
			t.Fatalf("IsAccepted(%q) error = %v", tag, err)
		}
		if !ok {
			t.Errorf("IsAccepted(%q) = false, want seeded tag accepted", tag)
		}
	}

	ok, _ := s.IsAccepted("BADTAG")
	if ok {
		t.Error("IsAccepted(BADTAG) = true, want false")
	}

	if err := s.Add("NEWUSER"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ok, _ := s.IsAccepted("NEWUSER"); !ok {
		t.Error("IsAccepted(NEWUSER) = false after Add")
	}
}
