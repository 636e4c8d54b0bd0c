package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/kintreehq/kintree/pkg/tree"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// nodeHeight is the rendered height of a person card. Width comes from the
// layout metrics.
const nodeHeight = 64.0

// margin pads the drawing on all sides.
const margin = 24.0

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	graph     *tree.Graph
	showDates bool
}

// WithGraph attaches the graph for label enrichment (life dates). Without
// it, cards show only the name the layout carries.
func WithGraph(g *tree.Graph) SVGOption { return func(r *svgRenderer) { r.graph = g } }

// WithDates adds birth and death years below each name. Requires WithGraph.
func WithDates() SVGOption { return func(r *svgRenderer) { r.showDates = true } }

const cardCSS = `
    .card { fill: #fdfdfb; stroke: #4a4a45; stroke-width: 1.5; transition: stroke-width 0.2s ease; }
    .card.highlight { stroke-width: 3; }
    .card-name { font: 600 14px sans-serif; fill: #2a2a26; text-anchor: middle; }
    .card-dates { font: 11px sans-serif; fill: #6e6e66; text-anchor: middle; }
    .connector { stroke: #8a8a80; stroke-width: 1.5; fill: none; }`

const cardJS = `
    document.querySelectorAll('.card').forEach(el => {
      el.addEventListener('mouseenter', () => el.classList.add('highlight'));
      el.addEventListener('mouseleave', () => el.classList.remove('highlight'));
    });`

// SVG renders a layout as a standalone SVG document. Cards are drawn at
// the centers the layout computed; parent-child edges become orthogonal
// connectors leaving the parent's bottom edge and entering the child's top
// edge. Output is deterministic for a given layout.
func SVG(l layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := bounds(l)
	w := maxX - minX + l.Metrics.NodeWidth + 2*margin
	h := maxY - minY + nodeHeight + 2*margin
	// Shift so the leftmost card's left edge lands on the margin.
	dx := margin + l.Metrics.NodeWidth/2 - minX
	dy := margin + nodeHeight/2 - minY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cardCSS)

	for _, e := range l.Edges {
		from, okF := l.Node(e.From)
		to, okT := l.Node(e.To)
		if !okF || !okT {
			continue
		}
		renderConnector(&buf, from, to, dx, dy)
	}

	for i := range l.Nodes {
		r.renderCard(&buf, &l.Nodes[i], l.Metrics.NodeWidth, dx, dy)
	}

	fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", cardJS)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderConnector draws the parent-to-child link: straight down from the
// parent, across, and down into the child.
func renderConnector(buf *bytes.Buffer, from, to layout.Node, dx, dy float64) {
	x1, y1 := from.X+dx, from.Y+dy+nodeHeight/2
	x2, y2 := to.X+dx, to.Y+dy-nodeHeight/2
	midY := (y1 + y2) / 2
	fmt.Fprintf(buf, "  <path class=\"connector\" d=\"M %.1f %.1f V %.1f H %.1f V %.1f\"/>\n",
		x1, y1, midY, x2, y2)
}

func (r *svgRenderer) renderCard(buf *bytes.Buffer, n *layout.Node, width, dx, dy float64) {
	left := n.X + dx - width/2
	top := n.Y + dy - nodeHeight/2

	fmt.Fprintf(buf, "  <rect class=\"card\" id=\"card-%s\" x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" rx=\"8\"/>\n",
		html.EscapeString(n.ID), left, top, width, nodeHeight)

	dates := r.lifeDates(n.ID)
	nameY := n.Y + dy + 5
	if dates != "" {
		nameY = n.Y + dy - 3
	}
	fmt.Fprintf(buf, "  <text class=\"card-name\" x=\"%.1f\" y=\"%.1f\">%s</text>\n",
		n.X+dx, nameY, html.EscapeString(n.Name))
	if dates != "" {
		fmt.Fprintf(buf, "  <text class=\"card-dates\" x=\"%.1f\" y=\"%.1f\">%s</text>\n",
			n.X+dx, nameY+16, html.EscapeString(dates))
	}
}

// lifeDates formats "1920 - 1999" style date lines when enabled.
func (r *svgRenderer) lifeDates(id string) string {
	if !r.showDates || r.graph == nil {
		return ""
	}
	p, ok := r.graph.Person(id)
	if !ok {
		return ""
	}
	birth, death := p.Birth.String(), p.Death.String()
	switch {
	case birth == "" && death == "":
		return ""
	case death == "":
		return birth
	default:
		return birth + " - " + death
	}
}

// bounds reports the min and max node centers of the layout.
func bounds(l layout.Layout) (minX, minY, maxX, maxY float64) {
	for i, n := range l.Nodes {
		if i == 0 {
			minX, maxX = n.X, n.X
			minY, maxY = n.Y, n.Y
			continue
		}
		minX, maxX = min(minX, n.X), max(maxX, n.X)
		minY, maxY = min(minY, n.Y), max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY
}
