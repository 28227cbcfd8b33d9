package memory

import (
	"sync"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

type statusStore struct {
	store map[string]model.Status
	sync.RWMutex
}

func newStatusStore() *statusStore {
	return &statusStore{
		store: make(map[string]model.Status),
	}
}

func (s *statusStore) FetchAll() (models map[string]model.Status, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Status, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *statusStore) FindByDeviceID(deviceID string) (*model.Status, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[deviceID]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *statusStore) Set(m *model.Status) error {
	s.Lock()
	defer s.Unlock()

	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[m.DeviceID] = *m

	return nil
}

func (s *statusStore) Delete(deviceID string) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[deviceID]; !ok {
		return storage.ErrNotFound
	}

	delete(s.store, deviceID)

	return nil
}
