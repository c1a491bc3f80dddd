package bot

import (
	"context"
	"sync"
)

// MemoryStore keeps the name in process memory; a restart forgets it.
type MemoryStore struct {
	mu   sync.RWMutex
	name string
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name, s.set, nil
}

func (s *MemoryStore) SetName(_ context.Context, name string) error {
	s.mu.Lock()
	s.name, s.set = name, true
	s.mu.Unlock()
	return nil
}
