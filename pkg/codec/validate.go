package codec

import (
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// normalize fills defaults and enforces the diagram invariants on a decoded
// payload. Node violations are fatal; edge violations are fatal in strict
// mode and otherwise drop the edge with a warning.
func normalize(d *graph.Data, opts ImportOptions, w *warnings) error {
	if d.Nodes == nil {
		d.Nodes = []graph.Node{}
	}
	if d.Edges == nil {
		d.Edges = []graph.Edge{}
	}

	ids := make(map[string]struct{}, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Kind == "" {
			n.Kind = graph.KindText
		}
		if n.Size.Width == 0 && n.Size.Height == 0 {
			n.Size.Width, n.Size.Height = graph.DefaultNodeWidth, graph.DefaultNodeHeight
		}
		if err := graph.ValidateNode(n); err != nil {
			ve := err.(*errs.ValidationError)
			ve.Index = i
			return ve
		}
		if _, dup := ids[n.ID]; dup {
			return errs.Validation("nodes", i, n.ID, "id", "duplicate node id")
		}
		ids[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(d.Edges))
	kept := d.Edges[:0]
	for i, e := range d.Edges {
		var verr *errs.ValidationError
		switch _, dup := edgeIDs[e.ID]; {
		case e.ID == "":
			verr = errs.Validation("edges", i, "", "id", "edge id must not be empty")
		case dup:
			verr = errs.Validation("edges", i, e.ID, "id", "duplicate edge id")
		case !has(ids, e.From):
			verr = errs.Validation("edges", i, e.ID, "from", "unknown node %q", e.From)
		case !has(ids, e.To):
			verr = errs.Validation("edges", i, e.ID, "to", "unknown node %q", e.To)
		case !e.FromSide.Valid() || !e.ToSide.Valid():
			verr = errs.Validation("edges", i, e.ID, "side", "unknown side")
		}
		if verr != nil {
			if opts.Strict {
				return verr
			}
			w.add("dropped edge: %s", verr.Reason())
			continue
		}
		edgeIDs[e.ID] = struct{}{}
		kept = append(kept, e)
	}
	d.Edges = kept

	if d.Viewport.Zoom == 0 {
		d.Viewport.Zoom = 1
	}
	if z := graph.ClampZoom(d.Viewport.Zoom); z != d.Viewport.Zoom {
		w.add("viewport zoom %g clamped to %g", d.Viewport.Zoom, z)
		d.Viewport.Zoom = z
	}
	return d.Validate()
}

func has(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}
