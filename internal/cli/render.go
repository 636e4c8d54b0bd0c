package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kintreehq/kintree/pkg/cache"
	"github.com/kintreehq/kintree/pkg/render"
	"github.com/kintreehq/kintree/pkg/tree"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

const (
	formatSVG  = "svg"  // layered card chart
	formatPNG  = "png"  // Graphviz node-link rasterized
	formatDOT  = "dot"  // Graphviz source, for external tooling
	formatJSON = "json" // layout geometry export
)

// artifactTTL bounds how long rendered artifacts live in the cache. Keys
// embed the graph content hash, so expiry only reclaims space.
const artifactTTL = 24 * time.Hour

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: "svg", "png", "dot", "json"
	detailed bool     // include birth/death years in node-link labels
	dates    bool     // include lifespan lines on SVG cards
	noCache  bool     // bypass the artifact cache
}

// newRenderCmd creates the render command for drawing the family tree.
//
// Default settings:
//   - format: svg (layered chart with one card per person)
//   - dates: true (lifespan line under each name)
//   - caching: on, keyed by graph content hash
func newRenderCmd(dataDir *string) *cobra.Command {
	var formatsStr string
	opts := renderOpts{dates: true}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the family tree to SVG, PNG, DOT or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return runRender(cmd.Context(), *dataDir, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include birth/death years in node-link labels")
	cmd.Flags().BoolVar(&opts.dates, "dates", opts.dates, "show lifespan lines on chart cards")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatPNG: true, formatDOT: true, formatJSON: true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', 'dot', or 'json')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the --output flag. If the
// output carries a known format extension, it is stripped so that multiple
// formats can share the base.
func basePath(output string) string {
	if output == "" {
		return "family"
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads the family graph and renders it to the requested formats.
func runRender(ctx context.Context, dataDir string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	ed, cfg, err := openEditor(ctx, dataDir, logger)
	if err != nil {
		return err
	}
	g := ed.Graph()
	if g.Count() == 0 {
		printWarning("the family tree is empty, nothing to render")
		return nil
	}
	logger.Infof("Loaded family tree: %d people", g.Count())

	var c cache.Cache = cache.NewNullCache()
	if !opts.noCache {
		c = newCache(ctx, cfg, logger)
	}
	defer c.Close()

	r := &renderer{
		graph:   g,
		metrics: cfg.Metrics(),
		cache:   c,
		keyer:   newKeyer(cfg),
	}

	prog := newProgress(logger)
	if len(opts.formats) == 1 {
		path := opts.output
		if path == "" {
			path = basePath("") + "." + opts.formats[0]
		}
		if err := r.renderTo(ctx, opts.formats[0], path, opts); err != nil {
			return err
		}
	} else {
		base := basePath(opts.output)
		for _, format := range opts.formats {
			if err := r.renderTo(ctx, format, base+"."+format, opts); err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
		}
	}
	prog.done(fmt.Sprintf("Rendered %d people", g.Count()))
	return nil
}

// renderer bundles the graph with its layout metrics and artifact cache.
type renderer struct {
	graph   *tree.Graph
	metrics layout.Metrics
	cache   cache.Cache
	keyer   cache.Keyer
}

// renderTo produces one format and writes it to path, consulting the
// content-hash keyed cache first.
func (r *renderer) renderTo(ctx context.Context, format, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	key := r.keyer.ArtifactKey(tree.Hash(r.graph), cache.ArtifactKeyOpts{Format: format})
	cached := false
	data, hit, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Debugf("Cache read failed: %v", err)
	}
	if hit {
		cached = true
	} else {
		data, err = r.render(ctx, format, opts)
		if err != nil {
			return err
		}
		if err := r.cache.Set(ctx, key, data, artifactTTL); err != nil {
			logger.Debugf("Cache write failed: %v", err)
		}
	}

	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	printSuccess("rendered %s", format)
	printFile(path)
	printStats(r.graph.Count(), countGenerations(r.graph), cached)
	return nil
}

// render dispatches to the appropriate backend for one format.
func (r *renderer) render(ctx context.Context, format string, opts *renderOpts) ([]byte, error) {
	logger := loggerFromContext(ctx)

	switch format {
	case formatDOT:
		logger.Info("Generating Graphviz source")
		return []byte(render.ToDOT(r.graph, render.Options{Detailed: opts.detailed})), nil
	case formatPNG:
		logger.Info("Rendering node-link PNG")
		dot := render.ToDOT(r.graph, render.Options{Detailed: opts.detailed})
		sp := newSpinnerWithContext(ctx, "Rasterizing family chart...")
		sp.Start()
		data, err := render.RenderPNG(dot)
		sp.Stop()
		return data, err
	case formatSVG, formatJSON:
		logger.Info("Computing layered layout")
		l := layout.Build(r.graph, layout.WithMetrics(r.metrics), layout.WithLogger(logger))
		if format == formatJSON {
			return render.RenderJSON(l, render.WithJSONGraph(r.graph), render.WithJSONHash(tree.Hash(r.graph)))
		}
		svgOpts := []render.SVGOption{render.WithGraph(r.graph)}
		if opts.dates {
			svgOpts = append(svgOpts, render.WithDates())
		}
		return render.SVG(l, svgOpts...), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// countGenerations reports how many distinct generations the layout spans.
func countGenerations(g *tree.Graph) int {
	gens := layout.Generations(g, nil)
	seen := make(map[int]struct{}, len(gens))
	for _, gen := range gens {
		seen[gen] = struct{}{}
	}
	return len(seen)
}

// openOutput opens path for writing, or stdout when path is "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
