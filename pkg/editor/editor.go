// Package editor is the mutation orchestrator for the family graph.
//
// Every user intent - add, edit or delete a person, or one of the compound
// create-and-link flows - becomes exactly one consistent new graph snapshot.
// An edit validates its input, clones the current snapshot, applies the
// change plus the integrity repairs (sibling symmetry, delete cascade) to
// the clone, and atomically adopts it.
//
// Persistence is fire-and-forget: after the in-memory snapshot is adopted,
// one background task first writes a safety snapshot of the previous state
// and then saves the new state. Write failures are logged as warnings and
// never roll back or block the in-memory graph.
package editor

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kintreehq/kintree/pkg/codec"
	"github.com/kintreehq/kintree/pkg/store"
	"github.com/kintreehq/kintree/pkg/tree"
)

// ValidationError carries all problems with a submitted edit, collected so
// the user can fix everything in one pass.
type ValidationError struct {
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Editor owns the current graph snapshot and the persistence hooks.
//
// All mutations run synchronously on the caller's goroutine; the mutex only
// guards the snapshot pointer against concurrent readers (the HTTP server,
// the background writer). There is no cancellation: a submitted edit
// completes.
type Editor struct {
	mu           sync.Mutex
	current      *tree.Graph
	lastExported *tree.Graph

	store  store.Store
	logger *log.Logger
	now    func() time.Time
	writes sync.WaitGroup
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger for soft-failure warnings.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// Open creates an editor over the graph persisted in s, starting from an
// empty graph when nothing has been saved yet. Any other load failure is
// returned - refusing to start beats silently shadowing existing data.
func Open(ctx context.Context, s store.Store, opts ...Option) (*Editor, error) {
	e := &Editor{
		store:  s,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	g, err := s.Load(ctx)
	switch {
	case err == nil:
		e.current = g
	case err == store.ErrNotFound:
		e.current = tree.New()
	default:
		return nil, err
	}
	return e, nil
}

// Graph returns the current snapshot. Callers must treat it as immutable;
// the editor replaces rather than mutates it on every edit.
func (e *Editor) Graph() *tree.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// NewPerson returns an empty person draft with a fresh unique ID.
func NewPerson() *tree.Person {
	return &tree.Person{ID: uuid.NewString()}
}

// SavePerson validates and applies an add or update of a single person.
// A draft without an ID gets a fresh one. The draft's SiblingIDs list is
// authoritative: symmetry with every other person is restored as part of
// the edit. Returns the saved person as stored in the new snapshot.
func (e *Editor) SavePerson(draft *tree.Person) (*tree.Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.savePersonLocked(draft)
}

// DeletePerson removes a person and repairs every remaining record.
func (e *Editor) DeletePerson(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current.Contains(id) {
		return tree.ErrUnknownPerson
	}
	next := e.current.Clone()
	next.DeleteCascade(id)
	e.commitLocked(next)
	return nil
}

// SetParents replaces a person's parent list. The list is validated like a
// full save: cardinality, existence, self-reference and the cycle check all
// apply against the pre-edit snapshot.
func (e *Editor) SetParents(id string, parents []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setParentsLocked(id, parents)
}

func (e *Editor) setParentsLocked(id string, parents []string) error {
	p, ok := e.current.Person(id)
	if !ok {
		return tree.ErrUnknownPerson
	}

	draft := p.Clone()
	draft.ParentIDs = slices.Clone(parents)
	if msgs := Validate(e.current, draft); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	next := e.current.Clone()
	np, _ := next.Person(id)
	np.ParentIDs = slices.Clone(parents)
	e.commitLocked(next)
	return nil
}

// AddSibling adds a symmetric sibling edge between two existing persons.
func (e *Editor) AddSibling(id, siblingID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addSiblingLocked(id, siblingID)
}

func (e *Editor) addSiblingLocked(id, siblingID string) error {
	if id == siblingID {
		return &ValidationError{Messages: []string{"a person cannot be their own sibling"}}
	}
	if !e.current.Contains(id) || !e.current.Contains(siblingID) {
		return tree.ErrUnknownPerson
	}

	next := e.current.Clone()
	p, _ := next.Person(id)
	if !p.HasSibling(siblingID) {
		p.SiblingIDs = append(p.SiblingIDs, siblingID)
	}
	next.ApplySiblingSymmetry(id)
	e.commitLocked(next)
	return nil
}

// RemoveSibling removes the symmetric sibling edge between two persons.
func (e *Editor) RemoveSibling(id, siblingID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current.Contains(id) {
		return tree.ErrUnknownPerson
	}

	next := e.current.Clone()
	p, _ := next.Person(id)
	p.SiblingIDs = slices.DeleteFunc(p.SiblingIDs, func(s string) bool { return s == siblingID })
	next.ApplySiblingSymmetry(id)
	e.commitLocked(next)
	return nil
}

// AddParentFor saves a new person and links them into a free parent slot of
// the child: the compound create-and-link-as-parent flow. Both steps are
// staged on one clone and committed as a single snapshot, so a link
// rejection leaves nothing behind - neither in memory nor in the store.
func (e *Editor) AddParentFor(childID string, draft *tree.Person) (*tree.Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	child, ok := e.current.Person(childID)
	if !ok {
		return nil, tree.ErrUnknownPerson
	}
	if len(child.ParentIDs) >= tree.MaxParents {
		return nil, &ValidationError{Messages: []string{"person already has two parents"}}
	}

	next, p, err := e.stagePersonLocked(draft)
	if err != nil {
		return nil, err
	}

	nc, _ := next.Person(childID)
	linked := nc.Clone()
	linked.ParentIDs = append(slices.Clone(nc.ParentIDs), p.ID)
	if msgs := Validate(next, linked); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	nc.ParentIDs = linked.ParentIDs

	e.commitLocked(next)
	return p, nil
}

// AddChildFor saves a new person preset with the given parent: the compound
// create-and-link-as-child flow.
func (e *Editor) AddChildFor(parentID string, draft *tree.Person) (*tree.Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current.Contains(parentID) {
		return nil, tree.ErrUnknownPerson
	}
	d := draft.Clone()
	d.ParentIDs = []string{parentID}
	return e.savePersonLocked(d)
}

// AddSiblingFor saves a new person and adds a symmetric sibling edge to the
// existing one: the compound create-and-link-as-sibling flow. Like
// [Editor.AddParentFor], both steps land in a single committed snapshot.
func (e *Editor) AddSiblingFor(personID string, draft *tree.Person) (*tree.Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current.Contains(personID) {
		return nil, tree.ErrUnknownPerson
	}
	if draft.ID == personID {
		return nil, &ValidationError{Messages: []string{"a person cannot be their own sibling"}}
	}

	next, p, err := e.stagePersonLocked(draft)
	if err != nil {
		return nil, err
	}

	sp, _ := next.Person(personID)
	if !sp.HasSibling(p.ID) {
		sp.SiblingIDs = append(sp.SiblingIDs, p.ID)
	}
	next.ApplySiblingSymmetry(personID)

	e.commitLocked(next)
	return p, nil
}

// savePersonLocked is SavePerson without the lock, for compound flows.
func (e *Editor) savePersonLocked(draft *tree.Person) (*tree.Person, error) {
	next, p, err := e.stagePersonLocked(draft)
	if err != nil {
		return nil, err
	}
	e.commitLocked(next)
	return p, nil
}

// stagePersonLocked validates draft and applies it to a clone of the
// current snapshot without committing. Compound flows stage further link
// edits on the returned clone before a single commit.
func (e *Editor) stagePersonLocked(draft *tree.Person) (*tree.Graph, *tree.Person, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if msgs := Validate(e.current, draft); len(msgs) > 0 {
		return nil, nil, &ValidationError{Messages: msgs}
	}

	next := e.current.Clone()
	p := draft.Clone()
	p.FirstName = strings.TrimSpace(p.FirstName)
	if err := next.PutPerson(p); err != nil {
		return nil, nil, err
	}
	next.ApplySiblingSymmetry(p.ID)
	return next, p, nil
}

// ImportGraph replaces the whole graph with a decoded interchange document.
// A document failing the format check rejects the import wholesale; nothing
// is applied. The previous state still gets its safety snapshot.
func (e *Editor) ImportGraph(data []byte) error {
	g, err := codec.Decode(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitLocked(g)
	return nil
}

// ExportGraph returns the canonical interchange encoding of the current
// snapshot and records it as the last export for [Editor.Dirty].
func (e *Editor) ExportGraph() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := codec.Encode(e.current)
	if err != nil {
		return nil, err
	}
	e.lastExported = e.current
	return data, nil
}

// Dirty reports whether the graph changed since the last successful export.
// It is recomputed from content hashes on every call; there is no stored
// flag.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.Dirty(e.current, e.lastExported)
}

// Flush blocks until all dispatched persistence writes have finished.
// Mutations never need this; it exists for shutdown and tests.
func (e *Editor) Flush() { e.writes.Wait() }

// commitLocked adopts next as the current snapshot and dispatches the
// persistence writes. The snapshot of the previous state is always
// initiated before the save of the new state; both are fire-and-forget and
// soft-fail with a logged warning.
func (e *Editor) commitLocked(next *tree.Graph) {
	prev := e.current
	next.Touch(e.now())
	e.current = next

	e.writes.Add(1)
	go func() {
		defer e.writes.Done()
		ctx := context.Background()
		if prev.Count() > 0 {
			if err := e.store.Snapshot(ctx, prev); err != nil {
				e.logger.Warn("snapshot write failed", "err", err)
			}
		}
		if err := e.store.Save(ctx, next); err != nil {
			e.logger.Warn("graph save failed", "err", err)
		}
	}()
}
