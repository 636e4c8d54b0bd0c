package tree

import "slices"

// ApplySiblingSymmetry restores the symmetric-sibling invariant after the
// person's SiblingIDs list has been edited. The edited person's list is
// authoritative:
//
//   - every listed sibling gains the reverse link if it is missing
//   - every other person still holding a stale reverse link loses it
//
// Unknown IDs in the authoritative list are left alone; they are cleaned up
// by [Graph.DeleteCascade] when the referenced person is removed. The sweep
// over all persons makes this O(graph size) per edit, which is the point:
// one pass after each save keeps the whole graph symmetric.
func (g *Graph) ApplySiblingSymmetry(personID string) {
	p, ok := g.persons[personID]
	if !ok {
		return
	}

	authoritative := make(map[string]bool, len(p.SiblingIDs))
	for _, sid := range p.SiblingIDs {
		authoritative[sid] = true
	}

	for _, other := range g.persons {
		if other.ID == personID {
			continue
		}
		switch {
		case authoritative[other.ID] && !other.HasSibling(personID):
			other.SiblingIDs = append(other.SiblingIDs, personID)
		case !authoritative[other.ID] && other.HasSibling(personID):
			other.SiblingIDs = slices.DeleteFunc(other.SiblingIDs, func(s string) bool {
				return s == personID
			})
		}
	}
}

// DeleteCascade removes the person and repairs every remaining record:
// the deleted ID is filtered out of all ParentIDs and SiblingIDs. Children
// of the deleted person simply lose that parent slot; there is no
// re-parenting or orphan promotion. Deleting an unknown ID is a no-op.
func (g *Graph) DeleteCascade(id string) {
	if _, ok := g.persons[id]; !ok {
		return
	}
	delete(g.persons, id)

	for _, p := range g.persons {
		p.ParentIDs = slices.DeleteFunc(p.ParentIDs, func(s string) bool { return s == id })
		p.SiblingIDs = slices.DeleteFunc(p.SiblingIDs, func(s string) bool { return s == id })
	}
}

// EffectiveSiblings returns the person's display sibling set: the union of
// explicit SiblingIDs and all other persons sharing at least one valid
// parent. The result is sorted by ID and never stored back on the person -
// it is derived state, recomputed per call.
func (g *Graph) EffectiveSiblings(id string) []string {
	p, ok := g.persons[id]
	if !ok {
		return nil
	}

	set := make(map[string]bool)
	for _, sid := range p.SiblingIDs {
		if g.Contains(sid) {
			set[sid] = true
		}
	}

	parents := make(map[string]bool, len(p.ParentIDs))
	for _, pid := range g.ValidParents(id) {
		parents[pid] = true
	}
	if len(parents) > 0 {
		for _, other := range g.persons {
			if other.ID == id {
				continue
			}
			for _, pid := range other.ParentIDs {
				if parents[pid] {
					set[other.ID] = true
					break
				}
			}
		}
	}

	siblings := make([]string, 0, len(set))
	for sid := range set {
		siblings = append(siblings, sid)
	}
	slices.Sort(siblings)
	return siblings
}
