package session

import (
	"sync"
	"time"
)

// janitorInterval is how often the eviction sweep runs.
const janitorInterval = time.Hour

// MemoryStore keeps session contexts in an in-process map. A background
// janitor drops entries untouched for longer than the TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Context
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Context),
		ttl:      TTL,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(sessionID string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Since(sc.UpdatedAt) > s.ttl {
		return nil, nil
	}
	// Copy so callers can mutate without racing the map.
	copied := *sc
	return &copied, nil
}

func (s *MemoryStore) Put(sessionID string, sc *Context) error {
	stored := *sc
	stored.UpdatedAt = time.Now()

	s.mu.Lock()
	s.sessions[sessionID] = &stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// EvictOlderThan drops sessions last touched before cutoff.
func (s *MemoryStore) EvictOlderThan(cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sc := range s.sessions {
		if sc.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Close stops the janitor. Stored sessions are discarded with the process.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.EvictOlderThan(time.Now().Add(-s.ttl))
		case <-s.stop:
			return
		}
	}
}
