// Package store provides persistence backends for family graphs.
//
// A [Store] persists whole-graph snapshots: the graph is always written and
// restored wholesale, never diffed. Three backends are provided:
//
//   - file: JSON files in a data directory (the CLI default)
//   - mongo: a MongoDB collection, storing interchange documents
//   - memory: an in-process map for tests
//
// Beyond Load/Save, every store keeps append-only safety snapshots: a
// [Store.Snapshot] write never overwrites an earlier one, so a bad edit is
// always recoverable from the state that preceded it. Callers treat all
// writes as soft-fail - a failed write is logged upstream and never blocks
// or reverts the in-memory graph.
package store

import (
	"context"
	"errors"

	"github.com/kintreehq/kintree/pkg/tree"
)

// ErrNotFound is returned by [Store.Load] when no graph has been persisted
// yet. First launch of a fresh data directory is the normal cause.
var ErrNotFound = errors.New("no persisted family graph")

// Store is the persistence collaborator for the mutation orchestrator.
type Store interface {
	// Load returns the last persisted graph, or ErrNotFound if none exists.
	Load(ctx context.Context) (*tree.Graph, error)

	// Save overwrites the persisted graph wholesale.
	Save(ctx context.Context, g *tree.Graph) error

	// Snapshot writes a timestamped, never-overwritten copy of the graph
	// for disaster recovery. Rapid successive snapshots must not collide.
	Snapshot(ctx context.Context, g *tree.Graph) error

	// Close releases backend resources.
	Close() error
}
