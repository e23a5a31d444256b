package store

import (
	"slices"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// NodePatch is a partial node update. Nil fields are left unchanged;
// Metadata entries are merged, with nil values deleting keys.
type NodePatch struct {
	Kind           *graph.Kind      `json:"kind,omitempty"`
	Text           *string          `json:"text,omitempty"`
	Position       *graph.Vec       `json:"position,omitempty"`
	Size           *graph.Size      `json:"size,omitempty"`
	Style          *graph.NodeStyle `json:"style,omitempty"`
	Rotation       *float64         `json:"rotation,omitempty"`
	Animation      *graph.Animation `json:"animation,omitempty"`
	ClearAnimation bool             `json:"clearAnimation,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
}

func (p NodePatch) apply(n *graph.Node) {
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.Position != nil {
		n.Position = graph.Node{Position: *p.Position}.Clone().Position
	}
	if p.Size != nil {
		n.Size = graph.Node{Size: *p.Size}.Clone().Size
	}
	if p.Style != nil {
		n.Style = graph.Node{Style: *p.Style}.Clone().Style
	}
	if p.Rotation != nil {
		n.Rotation = graph.Float(*p.Rotation)
	}
	switch {
	case p.ClearAnimation:
		n.Animation = nil
	case p.Animation != nil:
		a := *p.Animation
		n.Animation = &a
	}
	if len(p.Metadata) > 0 {
		merged := graph.Node{Metadata: p.Metadata}.Clone().Metadata
		if n.Metadata == nil {
			n.Metadata = make(map[string]any, len(merged))
		}
		for k, v := range merged {
			if v == nil {
				delete(n.Metadata, k)
				continue
			}
			n.Metadata[k] = v
		}
	}
}

// EdgePatch is a partial edge update. Nil fields are left unchanged.
type EdgePatch struct {
	From     *string          `json:"from,omitempty"`
	To       *string          `json:"to,omitempty"`
	FromSide *graph.Side      `json:"fromSide,omitempty"`
	ToSide   *graph.Side      `json:"toSide,omitempty"`
	Style    *graph.EdgeStyle `json:"style,omitempty"`
	Label    *string          `json:"label,omitempty"`
	Arrow    *bool            `json:"arrow,omitempty"`
	Animated *bool            `json:"animated,omitempty"`
}

func (p EdgePatch) apply(e *graph.Edge) {
	if p.From != nil {
		e.From = *p.From
	}
	if p.To != nil {
		e.To = *p.To
	}
	if p.FromSide != nil {
		e.FromSide = *p.FromSide
	}
	if p.ToSide != nil {
		e.ToSide = *p.ToSide
	}
	if p.Style != nil {
		e.Style = graph.Edge{Style: *p.Style}.Clone().Style
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Arrow != nil {
		e.Arrow = *p.Arrow
	}
	if p.Animated != nil {
		e.Animated = *p.Animated
	}
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode inserts a copy of n and returns its id. An empty id is generated,
// an empty kind defaults to text and a zero size to the default node size.
func (s *Store) AddNode(n graph.Node) (string, error) {
	node := n.Clone()
	if node.ID == "" {
		node.ID = s.ids.NewID()
	}
	if node.Kind == "" {
		node.Kind = graph.KindText
	}
	if node.Size.Width == 0 && node.Size.Height == 0 {
		node.Size.Width, node.Size.Height = graph.DefaultNodeWidth, graph.DefaultNodeHeight
	}
	if err := graph.ValidateNode(&node); err != nil {
		return "", err
	}
	if _, dup := s.data.Node(node.ID); dup {
		return "", validationFor("nodes", node.ID, "id", "duplicate node id")
	}
	s.commit(OpAddNode, []string{node.ID}, func(d *graph.Data) {
		d.Nodes = append(d.Nodes, node)
	})
	return node.ID, nil
}

// RemoveNode deletes the node and every edge touching it in one history
// step. It reports false when id is unknown.
func (s *Store) RemoveNode(id string) bool {
	if _, ok := s.data.Node(id); !ok {
		return false
	}
	ids := []string{id}
	for i := range s.data.Edges {
		if s.data.Edges[i].Touches(id) {
			ids = append(ids, s.data.Edges[i].ID)
		}
	}
	s.commit(OpRemoveNode, ids, func(d *graph.Data) {
		d.Nodes = deleteWhere(d.Nodes, func(n graph.Node) bool { return n.ID == id })
		d.Edges = deleteWhere(d.Edges, func(e graph.Edge) bool { return e.Touches(id) })
	})
	return true
}

// UpdateNode applies p to the node with id. It reports false, without
// touching history, when id is unknown or the patched node would violate
// a node invariant.
func (s *Store) UpdateNode(id string, p NodePatch) bool {
	cur, ok := s.data.Node(id)
	if !ok {
		return false
	}
	next := cur.Clone()
	p.apply(&next)
	if err := graph.ValidateNode(&next); err != nil {
		s.logger.Warn("rejected node update", "id", id, "error", err)
		return false
	}
	s.commit(OpUpdateNode, []string{id}, func(d *graph.Data) {
		n, _ := d.Node(id)
		*n = next
	})
	return true
}

// MoveNode sets the center of the node with id. It is shorthand for an
// UpdateNode position patch that keeps the current z.
func (s *Store) MoveNode(id string, x, y float64) bool {
	cur, ok := s.data.Node(id)
	if !ok {
		return false
	}
	pos := graph.Vec{X: x, Y: y, Z: cur.Position.Z}
	return s.UpdateNode(id, NodePatch{Position: &pos})
}

// DuplicateNodes copies the given nodes, offset by (dx, dy), together with
// the edges running between them. Unknown ids are skipped. It returns the
// new node ids in input order.
func (s *Store) DuplicateNodes(ids []string, dx, dy float64) []string {
	rename := make(map[string]string, len(ids))
	var nodes []graph.Node
	for _, id := range ids {
		n, ok := s.data.Node(id)
		if !ok {
			continue
		}
		if _, seen := rename[id]; seen {
			continue
		}
		c := n.Clone()
		c.ID = s.ids.NewID()
		c.Position.X += dx
		c.Position.Y += dy
		rename[id] = c.ID
		nodes = append(nodes, c)
	}
	if len(nodes) == 0 {
		return nil
	}
	var edges []graph.Edge
	for i := range s.data.Edges {
		e := s.data.Edges[i]
		from, okFrom := rename[e.From]
		to, okTo := rename[e.To]
		if !okFrom || !okTo {
			continue
		}
		c := e.Clone()
		c.ID = s.ids.NewID()
		c.From, c.To = from, to
		edges = append(edges, c)
	}

	created := make([]string, 0, len(nodes)+len(edges))
	for _, n := range nodes {
		created = append(created, n.ID)
	}
	affected := slices.Concat(created, edgeIDs(edges))
	s.commit(OpAddNode, affected, func(d *graph.Data) {
		d.Nodes = append(d.Nodes, nodes...)
		d.Edges = append(d.Edges, edges...)
	})
	return created
}

// =============================================================================
// Edges
// =============================================================================

// AddEdge inserts a copy of e and returns its id. Both endpoints must exist.
func (s *Store) AddEdge(e graph.Edge) (string, error) {
	edge := e.Clone()
	if edge.ID == "" {
		edge.ID = s.ids.NewID()
	}
	if _, dup := s.data.Edge(edge.ID); dup {
		return "", validationFor("edges", edge.ID, "id", "duplicate edge id")
	}
	if err := s.checkEndpoints(&edge); err != nil {
		return "", err
	}
	s.commit(OpAddEdge, []string{edge.ID}, func(d *graph.Data) {
		d.Edges = append(d.Edges, edge)
	})
	return edge.ID, nil
}

// RemoveEdge deletes the edge with id and reports whether it existed.
func (s *Store) RemoveEdge(id string) bool {
	if _, ok := s.data.Edge(id); !ok {
		return false
	}
	s.commit(OpRemoveEdge, []string{id}, func(d *graph.Data) {
		d.Edges = deleteWhere(d.Edges, func(e graph.Edge) bool { return e.ID == id })
	})
	return true
}

// UpdateEdge applies p to the edge with id. It reports false when id is
// unknown or the patch would point the edge at a missing node.
func (s *Store) UpdateEdge(id string, p EdgePatch) bool {
	cur, ok := s.data.Edge(id)
	if !ok {
		return false
	}
	next := cur.Clone()
	p.apply(&next)
	if err := s.checkEndpoints(&next); err != nil {
		s.logger.Warn("rejected edge update", "id", id, "error", err)
		return false
	}
	s.commit(OpUpdateEdge, []string{id}, func(d *graph.Data) {
		e, _ := d.Edge(id)
		*e = next
	})
	return true
}

func (s *Store) checkEndpoints(e *graph.Edge) error {
	if _, ok := s.data.Node(e.From); !ok {
		return validationFor("edges", e.ID, "from", "unknown node %q", e.From)
	}
	if _, ok := s.data.Node(e.To); !ok {
		return validationFor("edges", e.ID, "to", "unknown node %q", e.To)
	}
	if !e.FromSide.Valid() || !e.ToSide.Valid() {
		return validationFor("edges", e.ID, "side", "unknown side")
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func deleteWhere[T any](s []T, drop func(T) bool) []T {
	out := s[:0]
	for _, v := range s {
		if !drop(v) {
			out = append(out, v)
		}
	}
	clear(s[len(out):])
	return out
}

func edgeIDs(edges []graph.Edge) []string {
	ids := make([]string, len(edges))
	for i := range edges {
		ids[i] = edges[i].ID
	}
	return ids
}
