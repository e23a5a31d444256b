package layout

import (
	"math"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// Grid places the nodes of d on a uniform grid with ceil(sqrt(n)) columns
// and returns the arranged copy. The first cell is centered at
// (Margin + GridSpacingX/2, Margin + GridSpacingY/2).
func Grid(d graph.Data, cfg Config) graph.Data {
	cfg = cfg.withDefaults()
	out := d.Clone()
	n := len(out.Nodes)
	if n == 0 {
		return out
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	x0 := cfg.Margin + GridSpacingX/2
	y0 := cfg.Margin + GridSpacingY/2
	for i := range out.Nodes {
		out.Nodes[i].Position.X = x0 + float64(i%cols)*GridSpacingX
		out.Nodes[i].Position.Y = y0 + float64(i/cols)*GridSpacingY
	}
	return out
}
