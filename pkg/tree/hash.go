package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Hash computes a content hash of the graph: a SHA-256 over a canonical
// encoding of the person set. The encoding sorts persons by ID and sibling
// links within a person, so two graphs with the same content hash identically
// regardless of insertion order. The last-modified timestamp is excluded -
// two saves of identical content are the same graph.
func Hash(g *Graph) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d\n", g.Version)
	for _, p := range g.People() {
		siblings := slices.Clone(p.SiblingIDs)
		slices.Sort(siblings)
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\n",
			p.ID, p.FirstName, p.LastName,
			p.Birth.String(), p.Death.String(),
			strings.Join(p.ParentIDs, ","), strings.Join(siblings, ","),
			p.Notes, p.Photo)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Dirty reports whether current has unexported changes relative to the graph
// content recorded at the last successful export. It is a pure function of
// its inputs, recomputed on every check - there is no stored flag to keep in
// sync. A nil lastExported means nothing was ever exported, which counts as
// dirty for any non-empty graph.
func Dirty(current, lastExported *Graph) bool {
	if current == nil {
		return false
	}
	if lastExported == nil {
		return current.Count() > 0
	}
	return Hash(current) != Hash(lastExported)
}
