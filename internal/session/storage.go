package session

import (
	"context"
	"sync"
	"time"

	"chartcraft/domain/core"
	"chartcraft/domain/workspace"
	"chartcraft/internal/errors"
)

// MemoryStore keeps workspaces in process memory. It is the default store
// when no DATABASE_URL is configured; everything is lost on restart, which
// matches the lifetime of a browser session.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[core.SessionID]*workspace.Workspace
	now   func() time.Time

	janitorOnce sync.Once
	janitor     *Janitor
}

// NewMemoryStore creates an empty store. Call StartJanitor to expire idle
// sessions in the background.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[core.SessionID]*workspace.Workspace),
		now:   time.Now,
	}
}

// Get returns a private copy of the workspace.
func (s *MemoryStore) Get(ctx context.Context, id core.SessionID) (*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("workspace " + id.String())
	}
	return ws.Clone(), nil
}

// Save stores a copy of ws.
func (s *MemoryStore) Save(ctx context.Context, ws *workspace.Workspace) error {
	if ws == nil || ws.ID == "" {
		return errors.InvalidInput("workspace without an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[ws.ID] = ws.Clone()
	return nil
}

// Delete removes a workspace.
func (s *MemoryStore) Delete(ctx context.Context, id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// Sweep drops workspaces idle for longer than ttl.
func (s *MemoryStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.items {
		if ws.Expired(now, ttl) {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live workspaces.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// StartJanitor sweeps idle workspaces every interval until Close. Only the
// first call starts a goroutine.
func (s *MemoryStore) StartJanitor(ttl, interval time.Duration) {
	s.janitorOnce.Do(func() {
		s.janitor = NewJanitor(s, ttl, interval)
		s.janitor.Start()
	})
}

// Close stops the janitor and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.janitorOnce.Do(func() {})
	if s.janitor == nil {
		return nil
	}
	return s.janitor.Close()
}
