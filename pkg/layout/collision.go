package layout

import (
	"math"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// maxResolvePasses bounds the number of sweeps ResolveOverlaps performs.
const maxResolvePasses = 10

// Collision is a pair of overlapping nodes, identified by id.
type Collision struct {
	A string
	B string
}

// CheckCollisions returns every node pair closer than its minimum
// separation on both axes, in index order. Only cfg.Padding is consulted;
// zero means DefaultPadding.
func CheckCollisions(d graph.Data, cfg Config) []Collision {
	cfg = cfg.withDefaults()
	var out []Collision
	for i := 0; i < len(d.Nodes); i++ {
		for j := i + 1; j < len(d.Nodes); j++ {
			if collides(&d.Nodes[i], &d.Nodes[j], cfg.Padding) {
				out = append(out, Collision{A: d.Nodes[i].ID, B: d.Nodes[j].ID})
			}
		}
	}
	return out
}

// ResolveOverlaps pushes colliding pairs apart and returns the adjusted copy.
//
// Each colliding pair is moved symmetrically along its connecting vector
// until the centers are at least max((w1+w2)/2 + 2·padding, the distance
// at which one axis clears). A move is kept only if it does not increase
// the number of colliding pairs involving either node, so the total count
// never grows. Sweeps repeat until nothing moves.
func ResolveOverlaps(d graph.Data, cfg Config) graph.Data {
	cfg = cfg.withDefaults()
	work := d.Clone()
	nodes := work.Nodes

	for pass := 0; pass < maxResolvePasses; pass++ {
		moved := false
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				a, b := &nodes[i], &nodes[j]
				if !collides(a, b, cfg.Padding) {
					continue
				}
				before := involving(nodes, i, j, cfg.Padding)
				pa, pb := a.Position, b.Position
				pushApart(a, b, cfg.Padding)
				if involving(nodes, i, j, cfg.Padding) > before {
					a.Position, b.Position = pa, pb
					continue
				}
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return work
}

func minSeparation(a, b *graph.Node, padding float64) (sx, sy float64) {
	sx = (a.Size.Width+b.Size.Width)/2 + 2*padding
	sy = (a.Size.Height+b.Size.Height)/2 + 2*padding
	return sx, sy
}

func collides(a, b *graph.Node, padding float64) bool {
	sx, sy := minSeparation(a, b, padding)
	return math.Abs(a.Position.X-b.Position.X) < sx &&
		math.Abs(a.Position.Y-b.Position.Y) < sy
}

// involving counts colliding pairs that include node i or node j.
func involving(nodes []graph.Node, i, j int, padding float64) int {
	count := 0
	for k := range nodes {
		if k != i && collides(&nodes[i], &nodes[k], padding) {
			count++
		}
		if k != j && k != i && collides(&nodes[j], &nodes[k], padding) {
			count++
		}
	}
	return count
}

// pushApart moves a and b away from each other by half the overlap each.
func pushApart(a, b *graph.Node, padding float64) {
	vx := b.Position.X - a.Position.X
	vy := b.Position.Y - a.Position.Y
	dist := math.Hypot(vx, vy)
	ux, uy := 1.0, 0.0
	if dist > 0 {
		ux, uy = vx/dist, vy/dist
	}

	sx, sy := minSeparation(a, b, padding)
	axisClear := math.Inf(1)
	if ux != 0 {
		axisClear = sx / math.Abs(ux)
	}
	if uy != 0 {
		axisClear = math.Min(axisClear, sy/math.Abs(uy))
	}
	required := math.Max(axisClear, sx)
	// Nudge past the boundary so float rounding cannot leave the pair touching.
	required += 1e-6 * math.Max(1, required)

	half := (required - dist) / 2
	a.Position.X -= ux * half
	a.Position.Y -= uy * half
	b.Position.X += ux * half
	b.Position.Y += uy * half
}
