package memory

import (
	"sync"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

type heartbeatStore struct {
	store map[string]model.Heartbeat
	sync.RWMutex
}

func newHeartbeatStore() *heartbeatStore {
	return &heartbeatStore{
		store: make(map[string]model.Heartbeat),
	}
}

func (s *heartbeatStore) FetchAll() (models map[string]model.Heartbeat, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Heartbeat, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *heartbeatStore) FindByDeviceID(deviceID string) (*model.Heartbeat, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[deviceID]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *heartbeatStore) Touch(deviceID string) error {
	s.Lock()
	defer s.Unlock()

	s.store[deviceID] = model.Heartbeat{
		DeviceID: deviceID,
		LastSeen: time.Now().UTC(),
	}

	return nil
}
