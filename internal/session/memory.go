package session

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/cargoquote/internal/dialogue"
)

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than the configured timeout are invisible to Get and removed by Sweep.
type MemoryStore struct {
	opts options

	mu       sync.RWMutex
	sessions map[string]*dialogue.Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:     buildOptions(opts),
		sessions: make(map[string]*dialogue.Session),
	}
}

func (m *MemoryStore) expired(s *dialogue.Session, now time.Time) bool {
	return m.opts.ttl > 0 && now.Sub(s.UpdatedAt) > m.opts.ttl
}

// Get returns a copy of the identity's session.
func (m *MemoryStore) Get(_ context.Context, identity string) (*dialogue.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[identity]
	if !ok || m.expired(s, m.opts.now()) {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(_ context.Context, s *dialogue.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Identity] = s.Clone()
	return nil
}

// Clear removes the identity's session.
func (m *MemoryStore) Clear(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, identity)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.opts.now()
	n := 0
	for _, s := range m.sessions {
		if !m.expired(s, now) {
			n++
		}
	}
	return n, nil
}

// Sweep deletes sessions idle at now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if m.opts.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.opts.now()); n > 0 {
				m.opts.log.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}
