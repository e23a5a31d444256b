package graph

import (
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// Validate checks the model invariants and returns the first violation as
// a *errors.ValidationError, or nil.
func (d *Data) Validate() error {
	nodeIDs := make(map[string]struct{}, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if err := ValidateNode(n); err != nil {
			ve := err.(*errs.ValidationError)
			ve.Index = i
			return ve
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return errs.Validation("nodes", i, n.ID, "id", "duplicate node id")
		}
		nodeIDs[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(d.Edges))
	for i := range d.Edges {
		e := &d.Edges[i]
		if e.ID == "" {
			return errs.Validation("edges", i, "", "id", "edge id must not be empty")
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return errs.Validation("edges", i, e.ID, "id", "duplicate edge id")
		}
		edgeIDs[e.ID] = struct{}{}
		if _, ok := nodeIDs[e.From]; !ok {
			return errs.Validation("edges", i, e.ID, "from", "unknown node %q", e.From)
		}
		if _, ok := nodeIDs[e.To]; !ok {
			return errs.Validation("edges", i, e.ID, "to", "unknown node %q", e.To)
		}
		if !e.FromSide.Valid() || !e.ToSide.Valid() {
			return errs.Validation("edges", i, e.ID, "side", "unknown side")
		}
	}

	if z := d.Viewport.Zoom; z < MinZoom || z > MaxZoom {
		return errs.Validation("viewport", -1, "", "zoom", "zoom %g outside [%g, %g]", z, MinZoom, MaxZoom)
	}
	return nil
}

// ValidateNode checks the per-node invariants. The returned error is a
// *errors.ValidationError with Index -1.
func ValidateNode(n *Node) error {
	if err := errs.ValidateID(n.ID); err != nil {
		return errs.Validation("nodes", -1, n.ID, "id", "%s", errs.UserMessage(err))
	}
	if !n.Kind.Valid() {
		return errs.Validation("nodes", -1, n.ID, "kind", "unknown kind %q", n.Kind)
	}
	if !(n.Size.Width > 0) || !(n.Size.Height > 0) {
		return errs.Validation("nodes", -1, n.ID, "size", "width and height must be positive")
	}
	if o := n.Style.Opacity; o != nil && !(*o >= 0 && *o <= 1) {
		return errs.Validation("nodes", -1, n.ID, "style.opacity", "opacity %g outside [0, 1]", *o)
	}
	return nil
}
