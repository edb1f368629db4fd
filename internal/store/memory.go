package store

import (
	"context"
	"fmt"
	"sync"
)

// InMemorySnapshotStore implements SnapshotStore for testing and ephemeral runs.
type InMemorySnapshotStore struct {
	mu    sync.RWMutex
	snap  *Snapshot
	saves int
}

// NewInMemorySnapshotStore creates an empty in-memory store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{}
}

// Load returns a copy of the last saved snapshot, or nil.
func (s *InMemorySnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), nil
}

// Save stores a copy of snap.
func (s *InMemorySnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *InMemorySnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *InMemorySnapshotStore) Close() error {
	return nil
}
