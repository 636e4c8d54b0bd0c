package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kintreehq/kintree/pkg/tree"
)

func testGraph(t *testing.T, ids ...string) *tree.Graph {
	t.Helper()
	g := tree.New()
	g.UpdatedAt = time.Now().UTC()
	for _, id := range ids {
		if err := g.AddPerson(&tree.Person{ID: id, FirstName: "P" + id}); err != nil {
			t.Fatalf("AddPerson(%s): %v", id, err)
		}
	}
	return g
}

func TestFileStore_LoadBeforeSave(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	g := testGraph(t, "a", "b")

	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	back, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tree.Hash(back) != tree.Hash(g) {
		t.Error("loaded graph differs from saved graph")
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := s.Save(ctx, testGraph(t, "a")); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if err := s.Save(ctx, testGraph(t, "a", "b", "c")); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	back, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if back.Count() != 3 {
		t.Errorf("Count() = %d, want 3 (wholesale overwrite)", back.Count())
	}
}

func TestFileStore_SnapshotsNeverOverwrite(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	// Rapid successive snapshots land in the same second; the collision
	// suffix must keep them apart.
	for i := 0; i < 3; i++ {
		if err := s.Snapshot(ctx, testGraph(t, "a")); err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
	}

	paths, err := s.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("len(Snapshots()) = %d, want 3", len(paths))
	}
}

func TestFileStore_ConcurrentSnapshotsAllKept(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()
	g := testGraph(t, "a")

	// Fire-and-forget writers can race on the same second-resolution stamp;
	// every writer must end up with its own file.
	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Snapshot(ctx, g)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
	}

	paths, err := s.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if len(paths) != writers {
		t.Errorf("len(Snapshots()) = %d, want %d", len(paths), writers)
	}
}

func TestMemStore_FailWrites(t *testing.T) {
	s := NewMemStore()
	s.FailWrites = errors.New("disk full")
	ctx := context.Background()

	if err := s.Save(ctx, testGraph(t, "a")); err == nil {
		t.Error("Save() succeeded, want injected failure")
	}
	if err := s.Snapshot(ctx, testGraph(t, "a")); err == nil {
		t.Error("Snapshot() succeeded, want injected failure")
	}
}
