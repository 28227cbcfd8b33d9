package memory

import "github.com/Lyadalachanchu/voice4evs/pkg/storage"

// Store contains all memory-based sub-stores for managing the device state
type store struct {
	status         *statusStore
	heartbeats     *heartbeatStore
	powerLimits    *powerLimitStore
	audit          *auditStore
	authorizations *authorizationStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		status:         newStatusStore(),
		heartbeats:     newHeartbeatStore(),
		powerLimits:    newPowerLimitStore(),
		audit:          newAuditStore(),
		authorizations: newAuthorizationStore(),
	}
}

// Status returns a sub-store for managing the Status model
func (s *store) Status() storage.StatusStore {
	return s.status
}

// Heartbeats returns a sub-store for managing the Heartbeat model
func (s *store) Heartbeats() storage.HeartbeatStore {
	return s.heartbeats
}

// PowerLimits returns a sub-store for managing the PowerLimit model
func (s *store) PowerLimits() storage.PowerLimitStore {
	return s.powerLimits
}

// Audit returns a sub-store for managing the AuditEntry model
func (s *store) Audit() storage.AuditStore {
	return s.audit
}

// Authorizations returns a sub-store for managing the whitelist
func (s *store) Authorizations() storage.AuthorizationStore {
	return s.authorizations
}
