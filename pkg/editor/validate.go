package editor

import (
	"fmt"
	"strings"

	"github.com/kintreehq/kintree/pkg/date"
	"github.com/kintreehq/kintree/pkg/tree"
)

// Validate checks a person draft against the current graph and returns all
// rule violations as user-facing messages. An empty slice means the draft
// is acceptable. Validation never mutates the graph.
func Validate(g *tree.Graph, draft *tree.Person) []string {
	var msgs []string

	if strings.TrimSpace(draft.FirstName) == "" {
		msgs = append(msgs, "first name must not be empty")
	}

	if len(draft.ParentIDs) > tree.MaxParents {
		msgs = append(msgs, fmt.Sprintf("a person can have at most %d parents", tree.MaxParents))
	}

	seen := make(map[string]bool, len(draft.ParentIDs))
	for _, pid := range draft.ParentIDs {
		switch {
		case pid == draft.ID:
			msgs = append(msgs, "a person cannot be their own parent")
		case seen[pid]:
			msgs = append(msgs, "the same parent is listed twice")
		case !g.Contains(pid):
			msgs = append(msgs, fmt.Sprintf("parent %q does not exist", pid))
		case g.WouldCreateCycle(draft.ID, pid):
			p, _ := g.Person(pid)
			msgs = append(msgs, fmt.Sprintf("%s is a descendant and cannot become a parent", p.DisplayName()))
		}
		seen[pid] = true
	}

	for _, sid := range draft.SiblingIDs {
		if sid == draft.ID {
			msgs = append(msgs, "a person cannot be their own sibling")
		} else if !g.Contains(sid) && sid != "" {
			msgs = append(msgs, fmt.Sprintf("sibling %q does not exist", sid))
		}
	}

	if c, ok := date.Compare(draft.Birth, draft.Death); ok && c > 0 {
		msgs = append(msgs, "birth date is after death date")
	}

	return msgs
}
