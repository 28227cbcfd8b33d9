package memory

import (
	"sync"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

type authorizationStore struct {
	store map[string]model.Authorization
	sync.RWMutex
}

func newAuthorizationStore() *authorizationStore {
	s := &authorizationStore{
		store: make(map[string]model.Authorization),
	}

	// Demo whitelist seeded at startup
	s.add("USER123")
	s.add("DEMO001")

	return s
}

func (s *authorizationStore) FetchAll() (models map[string]model.Authorization, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Authorization, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *authorizationStore) IsAccepted(idTag string) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	m, ok := s.store[idTag]
	return ok && m.Status == "Accepted", nil
}

func (s *authorizationStore) Add(idTag string) error {
	s.Lock()
	defer s.Unlock()

	s.add(idTag)

	return nil
}

func (s *authorizationStore) add(idTag string) {
	s.store[idTag] = model.Authorization{
		IDTag:     idTag,
		Status:    "Accepted",
		CreatedAt: time.Now().Round(time.Second).UTC(),
	}
}
