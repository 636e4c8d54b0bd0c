// Package tree implements the in-memory family-relationship graph.
//
// A [Graph] holds a set of [Person] records linked by parent and sibling
// edges. Parent edges form a directed acyclic graph (each person has at most
// two parents); sibling edges are symmetric. The package maintains both
// invariants under incremental edits:
//
//   - [Graph.WouldCreateCycle] is the admission check consulted before any
//     parent edge is added
//   - [Graph.ApplySiblingSymmetry] restores sibling symmetry after an edit
//   - [Graph.DeleteCascade] repairs every remaining record after a delete
//
// Graphs are treated as snapshots: an edit clones the current graph, mutates
// the clone and adopts it wholesale. Graph is not safe for concurrent use
// without external synchronization.
package tree

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/kintreehq/kintree/pkg/date"
)

// MaxParents is the maximum number of parent links per person.
const MaxParents = 2

var (
	// ErrInvalidPersonID is returned by [Graph.AddPerson] when the person ID
	// is empty. All persons must have non-empty identifiers.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePersonID is returned by [Graph.AddPerson] when a person
	// with the same ID already exists. Person IDs are unique per graph.
	ErrDuplicatePersonID = errors.New("duplicate person ID")

	// ErrUnknownPerson is returned by operations that reference a person ID
	// not present in the graph.
	ErrUnknownPerson = errors.New("unknown person")
)

// Person is a single record in the family graph.
//
// ParentIDs is an ordered list of at most [MaxParents] distinct person IDs,
// none equal to the person's own ID. SiblingIDs holds explicit sibling links
// and is kept symmetric by [Graph.ApplySiblingSymmetry]; siblings implied by
// a shared parent are derived on demand (see [Graph.EffectiveSiblings]) and
// never stored.
type Person struct {
	ID         string
	FirstName  string // required, non-blank after trimming
	LastName   string
	Birth      date.Date
	Death      date.Date
	Photo      string // embedded image payload (data URI), empty when absent
	ParentIDs  []string
	SiblingIDs []string
	Notes      string
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() *Person {
	cp := *p
	cp.ParentIDs = slices.Clone(p.ParentIDs)
	cp.SiblingIDs = slices.Clone(p.SiblingIDs)
	return &cp
}

// DisplayName returns "FirstName LastName", or just the first name when no
// last name is set.
func (p *Person) DisplayName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// HasParent reports whether id appears in the person's parent list.
func (p *Person) HasParent(id string) bool {
	return slices.Contains(p.ParentIDs, id)
}

// HasSibling reports whether id appears in the person's explicit sibling list.
func (p *Person) HasSibling(id string) bool {
	return slices.Contains(p.SiblingIDs, id)
}

// Graph is the unit of persistence and snapshotting: a version tag, a
// last-modified timestamp, and the full person set. It is saved and restored
// wholesale, never diffed.
//
// The zero value is not usable - use [New].
type Graph struct {
	Version   int
	UpdatedAt time.Time

	persons map[string]*Person
}

// CurrentVersion is the interchange format version written by this package.
const CurrentVersion = 1

// New creates an empty graph at the current format version.
func New() *Graph {
	return &Graph{
		Version: CurrentVersion,
		persons: make(map[string]*Person),
	}
}

// AddPerson adds a person to the graph.
// Returns ErrInvalidPersonID for an empty ID or ErrDuplicatePersonID when
// the ID is already taken. The person is stored by reference; callers that
// keep the original should pass a [Person.Clone].
func (g *Graph) AddPerson(p *Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, exists := g.persons[p.ID]; exists {
		return ErrDuplicatePersonID
	}
	g.persons[p.ID] = p
	return nil
}

// PutPerson inserts or replaces a person record. Unlike [Graph.AddPerson]
// an existing record with the same ID is overwritten.
func (g *Graph) PutPerson(p *Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	g.persons[p.ID] = p
	return nil
}

// Person returns the person with the given ID and true, or nil and false.
// The returned pointer is the live record; mutate only inside an edit that
// owns the snapshot.
func (g *Graph) Person(id string) (*Person, bool) {
	p, ok := g.persons[id]
	return p, ok
}

// Contains reports whether a person with the given ID exists.
func (g *Graph) Contains(id string) bool {
	_, ok := g.persons[id]
	return ok
}

// People returns all persons sorted by ID. The deterministic order makes
// iteration, serialization and hashing reproducible regardless of insertion
// order.
func (g *Graph) People() []*Person {
	people := make([]*Person, 0, len(g.persons))
	for _, id := range slices.Sorted(maps.Keys(g.persons)) {
		people = append(people, g.persons[id])
	}
	return people
}

// Count returns the number of persons in the graph.
func (g *Graph) Count() int { return len(g.persons) }

// Clone returns a deep copy of the graph. Edits clone the current snapshot,
// mutate the copy and adopt it, leaving the original untouched for
// fire-and-forget snapshot writes.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		Version:   g.Version,
		UpdatedAt: g.UpdatedAt,
		persons:   make(map[string]*Person, len(g.persons)),
	}
	for id, p := range g.persons {
		cp.persons[id] = p.Clone()
	}
	return cp
}

// Touch bumps the last-modified timestamp.
func (g *Graph) Touch(now time.Time) { g.UpdatedAt = now }

// ValidParents returns the subset of the person's ParentIDs that reference
// persons present in the graph. Dangling references (a parent deleted out
// from under an imported record) are skipped, not an error.
func (g *Graph) ValidParents(id string) []string {
	p, ok := g.persons[id]
	if !ok {
		return nil
	}
	var valid []string
	for _, pid := range p.ParentIDs {
		if g.Contains(pid) {
			valid = append(valid, pid)
		}
	}
	return valid
}
