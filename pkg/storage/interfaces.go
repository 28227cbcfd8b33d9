package storage

import "github.com/Lyadalachanchu/voice4evs/pkg/model"

// Interface is implemented by the storage
type Interface interface {
	Status() StatusStore
	Heartbeats() HeartbeatStore
	PowerLimits() PowerLimitStore
	Audit() AuditStore
	Authorizations() AuthorizationStore
}

// StatusStore is responsible for managing the Status model. Writes come
// from the protocol status handler or the scenario engine only.
type StatusStore interface {
	FetchAll() (map[string]model.Status, error)
	FindByDeviceID(deviceID string) (*model.Status, error)
	Set(m *model.Status) error
	Delete(deviceID string) error
}

// HeartbeatStore is responsible for managing the Heartbeat model
type HeartbeatStore interface {
	FetchAll() (map[string]model.Heartbeat, error)
	FindByDeviceID(deviceID string) (*model.Heartbeat, error)
	Touch(deviceID string) error
}

// PowerLimitStore is responsible for managing the PowerLimit model. Writes
// come from the guardrail validated entry point only, never from protocol
// messages.
type PowerLimitStore interface {
	FetchAll() (map[string]model.PowerLimit, error)
	FindByDeviceID(deviceID string) (*model.PowerLimit, error)
	SetDefault(deviceID string, kw float64) error
	SetConnector(deviceID string, connectorID int, kw float64) error
}

// AuditStore is responsible for managing the append-only AuditEntry model
type AuditStore interface {
	FetchAll() ([]model.AuditEntry, error)
	FindByDeviceID(deviceID string) ([]model.AuditEntry, error)
	Append(m *model.AuditEntry) error
	// Reset removes all entries. Intended for tests only.
	Reset() error
}

// AuthorizationStore is responsible for managing the whitelist of id tags
type AuthorizationStore interface {
	FetchAll() (map[string]model.Authorization, error)
	IsAccepted(idTag string) (bool, error)
	Add(idTag string) error
}
