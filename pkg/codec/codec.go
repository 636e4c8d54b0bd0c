// Package codec implements the portable interchange format for family
// graphs.
//
// The format is a single JSON document with a version tag, an update
// timestamp and the full person set:
//
//	{
//	  "version": 1,
//	  "updatedAt": "2026-08-26T12:00:00Z",
//	  "people": [{"id": "...", "firstName": "...", "parentIds": [...]}]
//	}
//
// Encoding is canonical - people sorted by ID, dates in the text grammar of
// [date.Parse] - so export → import → export is byte-identical apart from
// the timestamp. Decoding is a schema-validating parse: a document missing
// any required field is rejected wholesale with a [DecodeError]; the only
// tolerated absence is a person's "siblingIds" list, which older exports
// did not carry and which defaults to empty.
//
// The same record types carry bson tags so the Mongo-backed store persists
// documents in exactly the interchange shape.
package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kintreehq/kintree/pkg/date"
	"github.com/kintreehq/kintree/pkg/tree"
)

// Version is the only interchange format version this package accepts.
const Version = 1

// DecodeError describes why an imported document was rejected. The whole
// document is always rejected as a unit; there are no partial imports.
type DecodeError struct {
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return "invalid family graph document: " + e.Reason
}

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Document is the interchange representation of a full graph.
type Document struct {
	Version   int            `json:"version" bson:"version"`
	UpdatedAt string         `json:"updatedAt" bson:"updatedAt"`
	People    []PersonRecord `json:"people" bson:"people"`
}

// PersonRecord is the interchange representation of a single person.
// Dates are carried in the text grammar of [date.Parse].
type PersonRecord struct {
	ID         string   `json:"id" bson:"id"`
	FirstName  string   `json:"firstName" bson:"firstName"`
	LastName   string   `json:"lastName,omitempty" bson:"lastName,omitempty"`
	BirthDate  string   `json:"birthDate,omitempty" bson:"birthDate,omitempty"`
	DeathDate  string   `json:"deathDate,omitempty" bson:"deathDate,omitempty"`
	Photo      string   `json:"photo,omitempty" bson:"photo,omitempty"`
	ParentIDs  []string `json:"parentIds" bson:"parentIds"`
	SiblingIDs []string `json:"siblingIds" bson:"siblingIds"`
	Notes      string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// FromGraph converts a graph to its interchange document. People appear
// sorted by ID for deterministic output.
func FromGraph(g *tree.Graph) Document {
	people := g.People()
	doc := Document{
		Version:   g.Version,
		UpdatedAt: g.UpdatedAt.UTC().Format(time.RFC3339),
		People:    make([]PersonRecord, len(people)),
	}
	for i, p := range people {
		doc.People[i] = PersonRecord{
			ID:         p.ID,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			BirthDate:  p.Birth.String(),
			DeathDate:  p.Death.String(),
			Photo:      p.Photo,
			ParentIDs:  emptyNotNil(p.ParentIDs),
			SiblingIDs: emptyNotNil(p.SiblingIDs),
			Notes:      p.Notes,
		}
	}
	return doc
}

// ToGraph converts an interchange document to a graph, enforcing the
// semantic constraints the wire format cannot express: the accepted version,
// a parseable timestamp, unique non-empty IDs, parent cardinality, no
// self-parents and well-formed dates. All violations return a [DecodeError].
func ToGraph(doc Document) (*tree.Graph, error) {
	if doc.Version != Version {
		return nil, decodeErrorf("unsupported version %d (only %d is accepted)", doc.Version, Version)
	}
	updatedAt, err := time.Parse(time.RFC3339, doc.UpdatedAt)
	if err != nil {
		return nil, decodeErrorf("updatedAt %q is not an ISO-8601 timestamp", doc.UpdatedAt)
	}

	g := tree.New()
	g.UpdatedAt = updatedAt

	for _, rec := range doc.People {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, decodeErrorf("person with empty id")
		}
		if strings.TrimSpace(rec.FirstName) == "" {
			return nil, decodeErrorf("person %s has no first name", rec.ID)
		}
		if len(rec.ParentIDs) > tree.MaxParents {
			return nil, decodeErrorf("person %s has %d parents (max %d)", rec.ID, len(rec.ParentIDs), tree.MaxParents)
		}
		if slices.Contains(rec.ParentIDs, rec.ID) {
			return nil, decodeErrorf("person %s lists itself as a parent", rec.ID)
		}

		birth, err := date.Parse(rec.BirthDate)
		if err != nil {
			return nil, decodeErrorf("person %s: birth date: %v", rec.ID, err)
		}
		death, err := date.Parse(rec.DeathDate)
		if err != nil {
			return nil, decodeErrorf("person %s: death date: %v", rec.ID, err)
		}

		p := &tree.Person{
			ID:         rec.ID,
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			Birth:      birth,
			Death:      death,
			Photo:      rec.Photo,
			ParentIDs:  slices.Clone(rec.ParentIDs),
			SiblingIDs: slices.Clone(rec.SiblingIDs),
			Notes:      rec.Notes,
		}
		if err := g.AddPerson(p); err != nil {
			return nil, decodeErrorf("person %s: %v", rec.ID, err)
		}
	}

	return g, nil
}

// Encode serializes a graph to canonical, pretty-printed JSON bytes.
func Encode(g *tree.Graph) ([]byte, error) {
	data, err := json.MarshalIndent(FromGraph(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return append(data, '\n'), nil
}

// rawPerson mirrors PersonRecord with pointer fields so a validating decode
// can tell "absent" from "empty". Only siblingIds may be absent.
type rawPerson struct {
	ID         *string   `json:"id"`
	FirstName  *string   `json:"firstName"`
	LastName   string    `json:"lastName"`
	BirthDate  string    `json:"birthDate"`
	DeathDate  string    `json:"deathDate"`
	Photo      string    `json:"photo"`
	ParentIDs  *[]string `json:"parentIds"`
	SiblingIDs *[]string `json:"siblingIds"`
	Notes      string    `json:"notes"`
}

type rawDocument struct {
	Version   *int        `json:"version"`
	UpdatedAt *string     `json:"updatedAt"`
	People    *[]rawPerson `json:"people"`
}

// Decode parses and validates interchange JSON, returning the typed graph.
// Structural problems (malformed JSON, missing required fields) and semantic
// problems (bad version, cycle-adjacent constraints) are both reported as a
// single [DecodeError]; nothing is imported on failure.
func Decode(data []byte) (*tree.Graph, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeErrorf("malformed JSON: %v", err)
	}
	if raw.Version == nil {
		return nil, decodeErrorf("missing version")
	}
	if raw.UpdatedAt == nil {
		return nil, decodeErrorf("missing updatedAt")
	}
	if raw.People == nil {
		return nil, decodeErrorf("missing people")
	}

	doc := Document{
		Version:   *raw.Version,
		UpdatedAt: *raw.UpdatedAt,
		People:    make([]PersonRecord, len(*raw.People)),
	}
	for i, rp := range *raw.People {
		if rp.ID == nil {
			return nil, decodeErrorf("people[%d] is missing id", i)
		}
		if rp.FirstName == nil {
			return nil, decodeErrorf("person %s is missing firstName", *rp.ID)
		}
		if rp.ParentIDs == nil {
			return nil, decodeErrorf("person %s is missing parentIds", *rp.ID)
		}
		rec := PersonRecord{
			ID:        *rp.ID,
			FirstName: *rp.FirstName,
			LastName:  rp.LastName,
			BirthDate: rp.BirthDate,
			DeathDate: rp.DeathDate,
			Photo:     rp.Photo,
			ParentIDs: *rp.ParentIDs,
			Notes:     rp.Notes,
		}
		// Older exports predate sibling links; absence means none.
		if rp.SiblingIDs != nil {
			rec.SiblingIDs = *rp.SiblingIDs
		} else {
			rec.SiblingIDs = []string{}
		}
		doc.People[i] = rec
	}

	return ToGraph(doc)
}

// ExportFile writes the canonical encoding of g to path.
func ExportFile(g *tree.Graph, path string) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ImportFile reads and decodes an interchange document from path.
func ImportFile(path string) (*tree.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
