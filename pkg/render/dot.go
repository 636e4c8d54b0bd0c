package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/kintreehq/kintree/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes life dates in node labels.
	// When false, only the display name is shown.
	Detailed bool
}

// ToDOT converts a family graph to Graphviz DOT format. Parent-child edges
// point from parent to child so generations flow top to bottom; sibling
// links become dashed rank-constrained edges. The resulting DOT string can
// be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(g *tree.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph family {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.7;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, p := range g.People() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", p.ID, fmtLabel(p, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, p := range g.People() {
		for _, pid := range g.ValidParents(p.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", pid, p.ID)
		}
	}

	// Each sibling pair once, dashed and unranked.
	for _, p := range g.People() {
		for _, sid := range p.SiblingIDs {
			if p.ID < sid && g.Contains(sid) {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, dir=none, constraint=false];\n", p.ID, sid)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p *tree.Person, detailed bool) string {
	if !detailed {
		return p.DisplayName()
	}

	var parts []string
	if s := p.Birth.String(); s != "" {
		parts = append(parts, "b. "+s)
	}
	if s := p.Death.String(); s != "" {
		parts = append(parts, "d. "+s)
	}
	if len(parts) == 0 {
		return p.DisplayName()
	}
	return p.DisplayName() + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz engine.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using the embedded Graphviz engine.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG, nil)
}

func renderFormat(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's svg element so the drawing scales to
// its container instead of claiming fixed point dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
