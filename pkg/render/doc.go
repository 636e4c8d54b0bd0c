// Package render turns computed family tree layouts into visual outputs.
//
// # Overview
//
// This package contains the rendering sinks that transform a positioned
// layout into artifacts:
//
//   - Hand-built SVG of the layered tree ([SVG])
//   - Graphviz node-link diagrams ([ToDOT], [RenderSVG], [RenderPNG])
//   - JSON layout artifact for caching and external tools ([RenderJSON])
//
// # SVG
//
// The [SVG] sink draws each person as a rounded card at the position the
// layout computed, with orthogonal connectors from parents to children.
// It needs no external tooling and is what the HTTP server and TUI serve.
//
//	svg := render.SVG(l, render.WithGraph(g))
//
// # Node-Link Diagrams
//
// The [ToDOT] sink emits Graphviz DOT from the raw graph, letting Graphviz
// do its own layered layout. [RenderSVG] and [RenderPNG] rasterize DOT via
// the embedded Graphviz engine.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	png, err := render.RenderPNG(dot)
package render
