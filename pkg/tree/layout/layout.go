// Package layout maps a family graph to deterministic 2-D coordinates.
//
// Generations stack vertically (generation 0 at the top) and related people
// cluster horizontally. The algorithm runs three positioning passes over the
// generation layers:
//
//  1. top-down initial placement ordered by average parent position
//  2. bottom-up centering of each parent over its children
//  3. top-down pull of each child toward its parents
//
// Passes 2 and 3 end with a rightward-only overlap sweep per layer followed
// by a recenter around zero, so no two same-generation nodes ever sit closer
// than one node width plus the horizontal gap and no layer drifts sideways
// relative to its neighbours. Every step sorts on explicit keys and never depends on
// map iteration order, making the output bit-for-bit reproducible for the
// same person set regardless of insertion order.
package layout

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kintreehq/kintree/pkg/tree"
)

// Blend weights for pass 3: a child keeps a little of its own position and
// moves most of the way toward its parents' average.
const (
	selfWeight   = 0.3
	parentWeight = 0.7
)

// Metrics holds the fixed spacing constants of the layout.
type Metrics struct {
	NodeWidth float64 // horizontal extent of a node box
	HGap      float64 // minimum horizontal clearance between boxes
	VGap      float64 // vertical distance between generations
}

// DefaultMetrics are the spacing constants used when none are configured.
var DefaultMetrics = Metrics{NodeWidth: 180, HGap: 40, VGap: 160}

// spacing is the minimum center-to-center distance within a layer.
func (m Metrics) spacing() float64 { return m.NodeWidth + m.HGap }

// Node is a positioned person. X/Y address the node's center.
type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Generation int     `json:"generation"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Edge is one directed parent→child connection. Edges are only emitted when
// both endpoints exist in the person set; dangling parent references emit
// nothing.
type Edge struct {
	From string `json:"from"` // parent ID
	To   string `json:"to"`   // child ID
}

// Layout is the computed arrangement: positioned nodes, the parent-child
// edge list, and the metrics the positions were computed with.
type Layout struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
	Metrics Metrics `json:"metrics"`
}

// Node returns the positioned node for id and true, or a zero Node and false.
func (l Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Option configures Build.
type Option func(*builder)

// WithMetrics overrides the spacing constants.
func WithMetrics(m Metrics) Option {
	return func(b *builder) { b.metrics = m }
}

// WithLogger sets the logger used for the defensive cycle warning during
// generation assignment. Without it the fallback is silent.
func WithLogger(l *log.Logger) Option {
	return func(b *builder) { b.logger = l }
}

type builder struct {
	metrics Metrics
	logger  *log.Logger
}

// Build computes the layout for the given graph. An empty graph yields an
// empty layout.
func Build(g *tree.Graph, opts ...Option) Layout {
	b := builder{metrics: DefaultMetrics}
	for _, opt := range opts {
		opt(&b)
	}

	if g.Count() == 0 {
		return Layout{Metrics: b.metrics}
	}

	warn := func(id string) {
		if b.logger != nil {
			b.logger.Warn("cycle detected during generation assignment, forcing generation 0", "person", id)
		}
	}
	gens := Generations(g, warn)

	layers := groupLayers(g, gens)
	x := make(map[string]float64, g.Count())

	placeInitial(g, layers, x, b.metrics)
	centerOverChildren(g, gens, layers, x, b.metrics)
	pullTowardParents(g, layers, x, b.metrics)

	return assemble(g, gens, x, b.metrics)
}

// groupLayers partitions persons into generation layers, each sorted by ID
// for a stable starting order. The returned slice is indexed by generation.
func groupLayers(g *tree.Graph, gens map[string]int) [][]*tree.Person {
	maxGen := 0
	for _, gen := range gens {
		if gen > maxGen {
			maxGen = gen
		}
	}
	layers := make([][]*tree.Person, maxGen+1)
	for _, p := range g.People() {
		gen := gens[p.ID]
		layers[gen] = append(layers[gen], p)
	}
	return layers
}

// placeInitial is pass 1: top-down even spacing. Each layer is sorted by the
// average x of its already-positioned valid parents (layers above were
// placed first, so parent positions are known), with ties broken by
// case-insensitive "first last" name. Members are then spread evenly and
// the layer is recentered around zero.
func placeInitial(g *tree.Graph, layers [][]*tree.Person, x map[string]float64, m Metrics) {
	for _, layer := range layers {
		members := slices.Clone(layer)
		slices.SortFunc(members, func(a, b *tree.Person) int {
			if c := compareFloat(parentAverage(g, a, x), parentAverage(g, b, x)); c != 0 {
				return c
			}
			if c := strings.Compare(sortName(a), sortName(b)); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})

		span := float64(len(members)-1) * m.spacing()
		for i, p := range members {
			x[p.ID] = float64(i)*m.spacing() - span/2
		}
	}
}

// centerOverChildren is pass 2: bottom-up. Each node moves to the midpoint
// of the min/max x of its positioned children; childless nodes keep their
// pass-1 position. Each layer then gets an overlap sweep.
func centerOverChildren(g *tree.Graph, gens map[string]int, layers [][]*tree.Person, x map[string]float64, m Metrics) {
	children := childrenByParent(g)
	for gen := len(layers) - 1; gen >= 0; gen-- {
		for _, p := range layers[gen] {
			kids := children[p.ID]
			if len(kids) == 0 {
				continue
			}
			minX, maxX := x[kids[0]], x[kids[0]]
			for _, kid := range kids[1:] {
				minX = min(minX, x[kid])
				maxX = max(maxX, x[kid])
			}
			x[p.ID] = (minX + maxX) / 2
		}
		resolveOverlaps(layers[gen], x, m)
	}
}

// pullTowardParents is pass 3: top-down. Nodes with at least one valid
// parent blend their position with the parent average, then each layer gets
// an overlap sweep.
func pullTowardParents(g *tree.Graph, layers [][]*tree.Person, x map[string]float64, m Metrics) {
	for _, layer := range layers {
		for _, p := range layer {
			parents := g.ValidParents(p.ID)
			if len(parents) == 0 {
				continue
			}
			var sum float64
			for _, pid := range parents {
				sum += x[pid]
			}
			avg := sum / float64(len(parents))
			x[p.ID] = selfWeight*x[p.ID] + parentWeight*avg
		}
		resolveOverlaps(layer, x, m)
	}
}

// resolveOverlaps sorts the layer by current x and sweeps left to right,
// pushing each too-close node out to exactly the minimum spacing from its
// left neighbour. The sweep only ever moves nodes rightward; earlier nodes
// are never revisited. The layer is then recentered around zero, the same
// normalization pass 1 applies, so the sweep's rightward drift does not
// skew a layer relative to its neighbours.
func resolveOverlaps(layer []*tree.Person, x map[string]float64, m Metrics) {
	if len(layer) == 0 {
		return
	}
	members := slices.Clone(layer)
	slices.SortFunc(members, func(a, b *tree.Person) int {
		if c := compareFloat(x[a.ID], x[b.ID]); c != 0 {
			return c
		}
		if c := strings.Compare(sortName(a), sortName(b)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	minDist := m.spacing()
	for i := 1; i < len(members); i++ {
		left, right := members[i-1].ID, members[i].ID
		if x[right]-x[left] < minDist {
			x[right] = x[left] + minDist
		}
	}

	mid := (x[members[0].ID] + x[members[len(members)-1].ID]) / 2
	for _, p := range members {
		x[p.ID] -= mid
	}
}

// assemble produces the final layout: nodes sorted by ID with y derived from
// the generation, and one edge per valid (parent, child) pair in the
// deterministic People/ParentIDs order.
func assemble(g *tree.Graph, gens map[string]int, x map[string]float64, m Metrics) Layout {
	people := g.People()

	nodes := make([]Node, 0, len(people))
	var edges []Edge
	for _, p := range people {
		gen := gens[p.ID]
		nodes = append(nodes, Node{
			ID:         p.ID,
			Name:       p.DisplayName(),
			Generation: gen,
			X:          x[p.ID],
			Y:          float64(gen) * m.VGap,
		})
		for _, pid := range p.ParentIDs {
			if g.Contains(pid) {
				edges = append(edges, Edge{From: pid, To: p.ID})
			}
		}
	}

	return Layout{Nodes: nodes, Edges: edges, Metrics: m}
}

// childrenByParent builds the reverse-parent adjacency in deterministic
// order: children appear sorted by their own ID.
func childrenByParent(g *tree.Graph) map[string][]string {
	children := make(map[string][]string)
	for _, p := range g.People() {
		for _, pid := range p.ParentIDs {
			if g.Contains(pid) {
				children[pid] = append(children[pid], p.ID)
			}
		}
	}
	return children
}

// parentAverage returns the average x of the person's positioned valid
// parents, or 0 when there are none.
func parentAverage(g *tree.Graph, p *tree.Person, x map[string]float64) float64 {
	var sum float64
	var n int
	for _, pid := range g.ValidParents(p.ID) {
		if px, ok := x[pid]; ok {
			sum += px
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func sortName(p *tree.Person) string {
	return strings.ToLower(p.FirstName + " " + p.LastName)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
