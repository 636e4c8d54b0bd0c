package store

import (
	"context"
	"sync"

	"github.com/kintreehq/kintree/pkg/tree"
)

// MemStore is an in-process store for tests and throwaway sessions.
// Snapshots accumulate in order; nothing survives the process.
type MemStore struct {
	mu        sync.Mutex
	current   *tree.Graph
	snapshots []*tree.Graph

	// FailWrites makes Save and Snapshot return an error, for exercising
	// the fire-and-forget soft-failure path in tests.
	FailWrites error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Load(ctx context.Context) (*tree.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotFound
	}
	return s.current.Clone(), nil
}

func (s *MemStore) Save(ctx context.Context, g *tree.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.current = g.Clone()
	return nil
}

func (s *MemStore) Snapshot(ctx context.Context, g *tree.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.snapshots = append(s.snapshots, g.Clone())
	return nil
}

// SnapshotCount returns how many snapshots have been written.
func (s *MemStore) SnapshotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// LastSnapshot returns the most recent snapshot, or nil.
func (s *MemStore) LastSnapshot() *tree.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return nil
	}
	return s.snapshots[len(s.snapshots)-1]
}

func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
