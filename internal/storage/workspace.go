package storage

import (
	"sync"
	"time"
)

type workspaceEntry[W any] struct {
	workspace W
	lastUsed  time.Time
}

// WorkspaceStorage provides in-memory storage for per-chat workspaces
// and tracks when each one was last used.
type WorkspaceStorage[W any] struct {
	mu      sync.Mutex
	entries map[int64]*workspaceEntry[W]
	now     func() time.Time
}

// NewWorkspaceStorage creates a new WorkspaceStorage.
func NewWorkspaceStorage[W any]() *WorkspaceStorage[W] {
	return &WorkspaceStorage[W]{
		entries: make(map[int64]*workspaceEntry[W]),
		now:     time.Now,
	}
}

// Get returns the workspace stored for id and marks it as used.
func (s *WorkspaceStorage[W]) Get(id int64) (W, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		var zero W
		return zero, false
	}
	e.lastUsed = s.now()
	return e.workspace, true
}

// GetOrStore returns the workspace stored for id, creating it with create when absent.
func (s *WorkspaceStorage[W]) GetOrStore(id int64, create func() W) W {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.lastUsed = s.now()
		return e.workspace
	}

	w := create()
	s.entries[id] = &workspaceEntry[W]{workspace: w, lastUsed: s.now()}
	return w
}

// Delete removes the workspace stored for id.
func (s *WorkspaceStorage[W]) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// EvictIdle removes workspaces unused for longer than ttl and returns their ids.
func (s *WorkspaceStorage[W]) EvictIdle(ttl time.Duration) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)

	var evicted []int64
	for id, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			delete(s.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Len returns the number of stored workspaces.
func (s *WorkspaceStorage[W]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
