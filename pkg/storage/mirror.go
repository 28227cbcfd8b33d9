package storage

import (
	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

// NewMirroredAudit returns an AuditStore that reads from primary and writes
// to both primary and mirror. The mirror is best effort: a failing mirror
// write is logged but never fails the guarded action it records.
func NewMirroredAudit(primary, mirror AuditStore) AuditStore {
	return &mirroredAudit{primary: primary, mirror: mirror}
}

type mirroredAudit struct {
	primary AuditStore
	mirror  AuditStore
}

func (s *mirroredAudit) FetchAll() ([]model.AuditEntry, error) {
	return s.primary.FetchAll()
}

func (s *mirroredAudit) FindByDeviceID(deviceID string) ([]model.AuditEntry, error) {
	return s.primary.FindByDeviceID(deviceID)
}

func (s *mirroredAudit) Append(m *model.AuditEntry) error {
	if err := s.primary.Append(m); err != nil {
		return err
	}

	entry := *m
	if err := s.mirror.Append(&entry); err != nil {
		log.Errorf("storage: failed to mirror audit entry: %v", err)
	}

	return nil
}

func (s *mirroredAudit) Reset() error {
	if err := s.mirror.Reset(); err != nil {
		log.Errorf("storage: failed to reset audit mirror: %v", err)
	}
	return s.primary.Reset()
}

// WithAudit returns a storage Interface identical to base except for the
// audit sub-store.
func WithAudit(base Interface, audit AuditStore) Interface {
	return &auditOverride{Interface: base, audit: audit}
}

type auditOverride struct {
	Interface
	audit AuditStore
}

func (s *auditOverride) Audit() AuditStore {
	return s.audit
}
