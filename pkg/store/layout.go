package store

import (
	"time"

	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

// AutoOrganize runs the force layout to completion and applies the result
// as a single history step. It returns false for an empty diagram.
func (s *Store) AutoOrganize(cfg layout.Config) bool {
	if len(s.data.Nodes) == 0 {
		return false
	}
	start := time.Now()
	observability.Layout().OnLayoutStart("force", len(s.data.Nodes))
	next := layout.AutoOrganize(s.data, cfg)
	observability.Layout().OnLayoutComplete("force", len(s.data.Nodes), time.Since(start))
	return s.ApplyPositions(positionsOf(next))
}

// ResolveOverlaps pushes colliding nodes apart and applies the result as a
// single history step. It returns false when nothing collided.
func (s *Store) ResolveOverlaps(cfg layout.Config) bool {
	if len(layout.CheckCollisions(s.data, cfg)) == 0 {
		return false
	}
	start := time.Now()
	observability.Layout().OnLayoutStart("overlaps", len(s.data.Nodes))
	next := layout.ResolveOverlaps(s.data, cfg)
	observability.Layout().OnLayoutComplete("overlaps", len(s.data.Nodes), time.Since(start))
	return s.ApplyPositions(positionsOf(next))
}

// ArrangeGrid places all nodes on the uniform layout grid as one history
// step. It returns false for an empty diagram.
func (s *Store) ArrangeGrid(cfg layout.Config) bool {
	if len(s.data.Nodes) == 0 {
		return false
	}
	return s.ApplyPositions(positionsOf(layout.Grid(s.data, cfg)))
}

// ApplyPositions moves nodes to the given centers in one history step.
// Ids without a node are ignored, which lets a layout computed over several
// frames land on a diagram that changed meanwhile. Nothing is recorded
// when no node would move. It reports whether any node was moved.
func (s *Store) ApplyPositions(pos map[string]graph.Vec) bool {
	var ids []string
	for i := range s.data.Nodes {
		n := &s.data.Nodes[i]
		if p, ok := pos[n.ID]; ok && !samePosition(n.Position, p) {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return false
	}
	s.commit(OpLayout, ids, func(d *graph.Data) {
		for i := range d.Nodes {
			if p, ok := pos[d.Nodes[i].ID]; ok {
				d.Nodes[i].Position = graph.Node{Position: p}.Clone().Position
			}
		}
	})
	return true
}

func positionsOf(d graph.Data) map[string]graph.Vec {
	out := make(map[string]graph.Vec, len(d.Nodes))
	for _, n := range d.Nodes {
		out[n.ID] = n.Position
	}
	return out
}

func samePosition(a, b graph.Vec) bool {
	return a.X == b.X && a.Y == b.Y && a.ZOr(0) == b.ZOr(0)
}
