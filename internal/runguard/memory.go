package runguard

import (
	"context"
	"sync"
)

// MemoryStore is a non-durable MarkerStore, useful for tests and dry runs
type MemoryStore struct {
	mu      sync.Mutex
	week    Week
	found   bool
	LoadErr error
	SaveErr error
	Saves   int
}

func (s *MemoryStore) Load(_ context.Context) (Week, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoadErr != nil {
		return Week{}, false, s.LoadErr
	}

	return s.week, s.found, nil
}

func (s *MemoryStore) Save(_ context.Context, week Week) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.week = week
	s.found = true
	s.Saves++

	return nil
}

func (*MemoryStore) Close() error {
	return nil
}
