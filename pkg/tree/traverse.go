package tree

// Traversals are implemented as explicit worklists with visited sets rather
// than recursion: large trees must not hit stack limits, and the visited set
// keeps them terminating even on a graph that is (transiently) cyclic.

// childIndex builds the reverse-parent adjacency: parent ID -> IDs of
// persons listing it as a parent. Dangling parent references are included;
// they are harmless here because the traversal only follows IDs that exist.
func (g *Graph) childIndex() map[string][]string {
	children := make(map[string][]string, len(g.persons))
	for _, p := range g.People() {
		for _, pid := range p.ParentIDs {
			children[pid] = append(children[pid], p.ID)
		}
	}
	return children
}

// DescendantsOf returns the set of IDs transitively reachable from id in the
// child direction: every person whose parent chain leads back to id. The id
// itself is not included. Returns an empty set for an unknown ID.
func (g *Graph) DescendantsOf(id string) map[string]bool {
	children := g.childIndex()
	visited := make(map[string]bool)
	worklist := []string{id}

	for len(worklist) > 0 {
		curr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, child := range children[curr] {
			if visited[child] {
				continue
			}
			visited[child] = true
			worklist = append(worklist, child)
		}
	}
	return visited
}

// AncestorsOf returns the set of IDs transitively reachable from id by
// following parent links forward. The id itself is not included and dangling
// parent references are skipped. Returns an empty set for an unknown ID.
func (g *Graph) AncestorsOf(id string) map[string]bool {
	visited := make(map[string]bool)
	worklist := []string{id}

	for len(worklist) > 0 {
		curr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		p, ok := g.persons[curr]
		if !ok {
			continue
		}
		for _, pid := range p.ParentIDs {
			if visited[pid] || !g.Contains(pid) {
				continue
			}
			visited[pid] = true
			worklist = append(worklist, pid)
		}
	}
	return visited
}

// WouldCreateCycle reports whether adding candidateParent as a parent of
// personID would make the parent graph cyclic. True when the two IDs are
// equal or when the candidate is a descendant of the person.
//
// This is the single admission check for parent edges. It is a predicate,
// not a validator: it must be evaluated against the graph state before the
// edge is added, and it does not reject an edge that has already been
// applied.
func (g *Graph) WouldCreateCycle(personID, candidateParent string) bool {
	if personID == candidateParent {
		return true
	}
	return g.DescendantsOf(personID)[candidateParent]
}
