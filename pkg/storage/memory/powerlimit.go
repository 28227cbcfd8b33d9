package memory

import (
	"sync"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

type powerLimitStore struct {
	store map[string]model.PowerLimit
	sync.RWMutex
}

func newPowerLimitStore() *powerLimitStore {
	return &powerLimitStore{
		store: make(map[string]model.PowerLimit),
	}
}

func (s *powerLimitStore) FetchAll() (models map[string]model.PowerLimit, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.PowerLimit, len(s.store))

	for id, m := range s.store {
		models[id] = copyPowerLimit(m)
	}

	return models, nil
}

func (s *powerLimitStore) FindByDeviceID(deviceID string) (*model.PowerLimit, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[deviceID]; ok {
		c := copyPowerLimit(m)
		return &c, nil
	}

	return nil, storage.ErrNotFound
}

func (s *powerLimitStore) SetDefault(deviceID string, kw float64) error {
	s.Lock()
	defer s.Unlock()

	m := s.getOrInit(deviceID)
	m.DefaultKW = kw
	m.HasDefault = true
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[deviceID] = m

	return nil
}

func (s *powerLimitStore) SetConnector(deviceID string, connectorID int, kw float64) error {
	s.Lock()
	defer s.Unlock()

	m := s.getOrInit(deviceID)
	m.ConnectorKW[connectorID] = kw
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[deviceID] = m

	return nil
}

func (s *powerLimitStore) getOrInit(deviceID string) model.PowerLimit {
	m, ok := s.store[deviceID]
	if !ok {
		m = model.PowerLimit{
			DeviceID:    deviceID,
			ConnectorKW: make(map[int]float64),
		}
	}
	return m
}

// copyPowerLimit clones the connector map so callers cannot mutate the
// stored value without going through the store.
func copyPowerLimit(m model.PowerLimit) model.PowerLimit {
	c := m
	c.ConnectorKW = make(map[int]float64, len(m.ConnectorKW))
	for k, v := range m.ConnectorKW {
		c.ConnectorKW[k] = v
	}
	return c
}
