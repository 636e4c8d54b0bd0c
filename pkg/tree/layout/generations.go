package layout

import (
	"github.com/kintreehq/kintree/pkg/tree"
)

// Generations assigns every person a generation number: 0 for persons with
// no valid parents, otherwise one more than the deepest valid parent. A
// parent reference to an ID absent from the graph is dangling and counts as
// no parent at all.
//
// The computation is a memoized dependency walk driven by an explicit stack
// rather than recursion, so arbitrarily deep trees cannot blow the call
// stack. An in-progress guard handles the defensive case of a cyclic parent
// graph: a parent revisited while its own generation is still being computed
// contributes 0, and warn (if non-nil) is invoked with its ID. Acyclicity is
// enforced at edit time, so the guard firing indicates corrupted input - it
// keeps the layout total rather than correct.
func Generations(g *tree.Graph, warn func(id string)) map[string]int {
	memo := make(map[string]int, g.Count())
	visiting := make(map[string]bool)

	for _, p := range g.People() {
		if _, done := memo[p.ID]; done {
			continue
		}

		stack := []string{p.ID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			if _, done := memo[id]; done {
				stack = stack[:len(stack)-1]
				continue
			}

			parents := g.ValidParents(id)

			if !visiting[id] {
				visiting[id] = true
				pushed := false
				for _, pid := range parents {
					if _, done := memo[pid]; !done && !visiting[pid] {
						stack = append(stack, pid)
						pushed = true
					}
				}
				if pushed {
					continue
				}
			}

			// Every parent is now either resolved or still in progress;
			// the latter means a cycle and contributes the fallback 0.
			gen := 0
			if len(parents) > 0 {
				deepest := 0
				for _, pid := range parents {
					pg, done := memo[pid]
					if !done {
						if warn != nil {
							warn(pid)
						}
						pg = 0
					}
					if pg > deepest {
						deepest = pg
					}
				}
				gen = deepest + 1
			}

			memo[id] = gen
			delete(visiting, id)
			stack = stack[:len(stack)-1]
		}
	}

	return memo
}
