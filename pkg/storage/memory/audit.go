package memory

import (
	"sync"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

type auditStore struct {
	store  []model.AuditEntry
	nextID int32
	sync.RWMutex
}

func newAuditStore() *auditStore {
	return &auditStore{
		store:  make([]model.AuditEntry, 0),
		nextID: 1,
	}
}

func (s *auditStore) FetchAll() ([]model.AuditEntry, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.AuditEntry, len(s.store))
	copy(models, s.store)

	return models, nil
}

func (s *auditStore) FindByDeviceID(deviceID string) ([]model.AuditEntry, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.AuditEntry, 0)
	for _, m := range s.store {
		if m.DeviceID == deviceID {
			models = append(models, m)
		}
	}

	return models, nil
}

func (s *auditStore) Append(m *model.AuditEntry) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	s.store = append(s.store, *m)

	return nil
}

func (s *auditStore) Reset() error {
	s.Lock()
	defer s.Unlock()

	s.store = s.store[:0]
	s.nextID = 1

	return nil
}

func (s *auditStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}
