package throttle

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. It is atomic within one
// process only.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, caller, endpoint string, now time.Time, window time.Duration, limit int) (Window, error) {
	key := endpoint + "|" + caller
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !w.Start.Add(window).After(now) {
		w = Window{Start: now, Count: 1}
	} else if w.Count < limit {
		w.Count++
	}
	s.windows[key] = w
	return w, nil
}

// Prune drops windows that expired before now.
func (s *MemoryStore) Prune(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, w := range s.windows {
		if !w.Start.Add(window).After(now) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}
