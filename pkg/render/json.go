package render

import (
	"encoding/json"

	"github.com/kintreehq/kintree/pkg/tree"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	graph     *tree.Graph
	graphHash string
}

// WithJSONGraph attaches the graph for label enrichment (life dates).
// Without this, nodes carry only position and name.
func WithJSONGraph(g *tree.Graph) JSONOption { return func(r *jsonRenderer) { r.graph = g } }

// WithJSONHash records the content hash of the source graph in the output,
// letting consumers detect which graph state an artifact was derived from.
func WithJSONHash(hash string) JSONOption { return func(r *jsonRenderer) { r.graphHash = hash } }

type jsonOutput struct {
	NodeWidth float64    `json:"node_width"`
	HGap      float64    `json:"h_gap"`
	VGap      float64    `json:"v_gap"`
	GraphHash string     `json:"graph_hash,omitempty"`
	Nodes     []jsonNode `json:"nodes"`
	Edges     []jsonEdge `json:"edges,omitempty"`
}

type jsonNode struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Generation int     `json:"generation"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Birth      string  `json:"birth,omitempty"`
	Death      string  `json:"death,omitempty"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenderJSON exports the layout as a pretty-printed JSON document. This is
// the artifact the cache stores and the format external visualization
// tools consume: positions, generations and parent-child edges, plus
// optional life dates and the source graph hash.
//
// RenderJSON returns an error only if JSON marshaling fails. It does not
// modify l or the graph, and is safe to call concurrently.
func RenderJSON(l layout.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		NodeWidth: l.Metrics.NodeWidth,
		HGap:      l.Metrics.HGap,
		VGap:      l.Metrics.VGap,
		GraphHash: r.graphHash,
		Nodes:     make([]jsonNode, 0, len(l.Nodes)),
		Edges:     make([]jsonEdge, 0, len(l.Edges)),
	}

	for _, n := range l.Nodes {
		jn := jsonNode{
			ID:         n.ID,
			Name:       n.Name,
			Generation: n.Generation,
			X:          n.X,
			Y:          n.Y,
		}
		if r.graph != nil {
			if p, ok := r.graph.Person(n.ID); ok {
				jn.Birth = p.Birth.String()
				jn.Death = p.Death.String()
			}
		}
		out.Nodes = append(out.Nodes, jn)
	}

	for _, e := range l.Edges {
		out.Edges = append(out.Edges, jsonEdge{From: e.From, To: e.To})
	}

	return json.MarshalIndent(out, "", "  ")
}
