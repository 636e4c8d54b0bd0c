package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kintreehq/kintree/pkg/codec"
	"github.com/kintreehq/kintree/pkg/kterrors"
	"github.com/kintreehq/kintree/pkg/tree"
)

const (
	graphFile    = "family.json"
	snapshotDir  = "snapshots"
	snapshotStem = "family-"
)

// snapshotTimeLayout gives second resolution, which is fine enough for
// interactive edits; same-second collisions get a numeric suffix.
const snapshotTimeLayout = "20060102-150405"

// FileStore persists the graph as JSON files in a data directory:
// family.json for the current state and snapshots/family-<timestamp>.json
// for the append-only safety copies.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
// If dir is empty, defaults to ~/.config/kintree/
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "kintree")
	}
	if err := os.MkdirAll(filepath.Join(dir, snapshotDir), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the location of the current-state file.
func (s *FileStore) Path() string { return filepath.Join(s.dir, graphFile) }

// Load reads and decodes the persisted graph.
func (s *FileStore) Load(ctx context.Context) (*tree.Graph, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return codec.Decode(data)
}

// Save overwrites the current-state file with the canonical encoding of g.
// The write goes through a temp file and rename so a crash mid-write never
// corrupts the only copy of the data.
func (s *FileStore) Save(ctx context.Context, g *tree.Graph) error {
	data, err := codec.Encode(g)
	if err != nil {
		return err
	}
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replace graph: %w", err)
	}
	return nil
}

// Snapshot writes a timestamped copy under snapshots/. Existing snapshot
// files are never overwritten; a name collision within the same second gets
// a numeric suffix. Creation uses O_EXCL so two concurrent writers racing
// on the same stamp both keep their copy instead of one clobbering the
// other.
func (s *FileStore) Snapshot(ctx context.Context, g *tree.Graph) error {
	data, err := codec.Encode(g)
	if err != nil {
		return err
	}

	stamp := time.Now().UTC().Format(snapshotTimeLayout)
	base := filepath.Join(s.dir, snapshotDir, snapshotStem+stamp)
	path := base + ".json"
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			path = fmt.Sprintf("%s-%d.json", base, i)
			continue
		}
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write snapshot: %w", werr)
		}
		return nil
	}
}

// Snapshots returns the snapshot file paths in lexical (chronological)
// order. Files in the snapshot directory that do not match the timestamped
// naming scheme are ignored.
func (s *FileStore) Snapshots() ([]string, error) {
	pattern := filepath.Join(s.dir, snapshotDir, snapshotStem+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	paths := matches[:0]
	for _, p := range matches {
		if kterrors.ValidateSnapshotName(filepath.Base(p)) == nil {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
