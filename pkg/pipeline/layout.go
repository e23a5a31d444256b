package pipeline

import (
	"time"

	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout applies opts.Layout and, when opts.Resolve is set, removes
// overlaps afterwards. The input is not modified.
func GenerateLayout(d graph.Data, opts Options) graph.Data {
	cfg := opts.layoutConfig()
	out := d.Clone()
	n := len(out.Nodes)

	run := func(alg string, fn func(graph.Data, layout.Config) graph.Data) {
		start := time.Now()
		observability.Layout().OnLayoutStart(alg, n)
		out = fn(out, cfg)
		observability.Layout().OnLayoutComplete(alg, n, time.Since(start))
	}

	switch opts.Layout {
	case LayoutOrganize:
		run("force", layout.AutoOrganize)
	case LayoutGrid:
		run("grid", layout.Grid)
	}
	if opts.Resolve && len(layout.CheckCollisions(out, cfg)) > 0 {
		run("overlaps", layout.ResolveOverlaps)
	}
	return out
}

func (o *Options) layoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	if o.Width > 0 {
		cfg.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Height = o.Height
	}
	if o.Iterations > 0 {
		cfg.Iterations = o.Iterations
	}
	return cfg
}
