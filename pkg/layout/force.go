package layout

import (
	"math"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// AutoOrganize arranges d with a force-directed layout and returns the
// arranged copy. It runs all iterations synchronously; use [Simulation]
// to spread them across frames.
func AutoOrganize(d graph.Data, cfg Config) graph.Data {
	sim := NewSimulation(d, cfg)
	sim.Run()
	return sim.Result()
}

// Simulation is a resumable Fruchterman–Reingold layout. The physics do
// not depend on how iterations are batched: Step(100) and a hundred
// Step(1) calls yield the same positions.
//
// A Simulation is not safe for concurrent use.
type Simulation struct {
	cfg   Config
	data  graph.Data
	edges [][2]int
	k     float64
	iter  int
	dx    []float64
	dy    []float64
}

// NewSimulation prepares a simulation over a copy of d. Zero Config fields
// take their defaults.
func NewSimulation(d graph.Data, cfg Config) *Simulation {
	cfg = cfg.withDefaults()
	work := d.Clone()
	n := len(work.Nodes)

	index := make(map[string]int, n)
	for i := range work.Nodes {
		index[work.Nodes[i].ID] = i
	}
	edges := make([][2]int, 0, len(work.Edges))
	for _, e := range work.Edges {
		u, okU := index[e.From]
		v, okV := index[e.To]
		if !okU || !okV || u == v {
			continue
		}
		edges = append(edges, [2]int{u, v})
	}

	k := 0.0
	if n > 0 {
		k = math.Sqrt(cfg.Width * cfg.Height / float64(n))
	}
	return &Simulation{
		cfg:   cfg,
		data:  work,
		edges: edges,
		k:     k,
		dx:    make([]float64, n),
		dy:    make([]float64, n),
	}
}

// Step runs up to n iterations and reports whether the simulation is done.
func (s *Simulation) Step(n int) bool {
	for i := 0; i < n && !s.Done(); i++ {
		s.iterate()
	}
	return s.Done()
}

// Run finishes all remaining iterations.
func (s *Simulation) Run() {
	s.Step(s.cfg.Iterations)
}

// Done reports whether every iteration has run.
func (s *Simulation) Done() bool {
	return s.iter >= s.cfg.Iterations
}

// Progress returns the completed fraction in [0, 1].
func (s *Simulation) Progress() float64 {
	return float64(s.iter) / float64(s.cfg.Iterations)
}

// Result returns a copy of the current arrangement with every node clamped
// into the canvas margins.
func (s *Simulation) Result() graph.Data {
	out := s.data.Clone()
	for i := range out.Nodes {
		clamp(&out.Nodes[i], s.cfg)
	}
	return out
}

func (s *Simulation) temperature() float64 {
	remaining := s.cfg.Iterations - s.iter
	return s.cfg.Cooling * float64(remaining) / float64(s.cfg.Iterations)
}

func (s *Simulation) iterate() {
	nodes := s.data.Nodes
	for i := range nodes {
		s.dx[i], s.dy[i] = 0, 0
	}

	k2 := s.k * s.k
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			ux, uy, dist := separation(&nodes[i], &nodes[j])
			f := k2 / dist
			s.dx[i] += ux * f
			s.dy[i] += uy * f
			s.dx[j] -= ux * f
			s.dy[j] -= uy * f
		}
	}

	for _, e := range s.edges {
		u, v := e[0], e[1]
		ux, uy, dist := separation(&nodes[u], &nodes[v])
		f := dist * dist / s.k
		s.dx[u] -= ux * f
		s.dy[u] -= uy * f
		s.dx[v] += ux * f
		s.dy[v] += uy * f
	}

	t := s.temperature()
	for i := range nodes {
		mag := math.Hypot(s.dx[i], s.dy[i])
		if mag > 0 {
			step := math.Min(mag, t)
			nodes[i].Position.X += s.dx[i] / mag * step
			nodes[i].Position.Y += s.dy[i] / mag * step
		}
		clamp(&nodes[i], s.cfg)
	}
	s.iter++
}

// separation returns the unit vector from b to a and their distance.
// Coincident nodes are treated as one unit apart along +x.
func separation(a, b *graph.Node) (ux, uy, dist float64) {
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	dist = math.Hypot(dx, dy)
	if dist == 0 {
		return 1, 0, 1
	}
	return dx / dist, dy / dist, dist
}

func clamp(n *graph.Node, cfg Config) {
	n.Position.X = clampRange(n.Position.X, cfg.Margin, cfg.Width-cfg.Margin)
	n.Position.Y = clampRange(n.Position.Y, cfg.Margin, cfg.Height-cfg.Margin)
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		return (lo + hi) / 2
	}
	return math.Min(hi, math.Max(lo, v))
}
