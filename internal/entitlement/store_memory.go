package entitlement

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Grant
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Grant)}
}

func memoryKey(callerKey, tool string) string {
	return tool + "|" + callerKey
}

func (s *memoryStore) Get(ctx context.Context, callerKey, tool string) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.data[memoryKey(callerKey, tool)]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *memoryStore) Put(ctx context.Context, g Grant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[memoryKey(g.CallerKey, g.Tool)] = g
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, callerKey, tool string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(callerKey, tool)
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	return nil
}
