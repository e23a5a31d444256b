package graph

// Clone returns a deep copy of d. The copy shares no slices, maps or
// pointers with d, so either side may be mutated freely.
func (d Data) Clone() Data {
	out := Data{
		Nodes:    make([]Node, len(d.Nodes)),
		Edges:    make([]Edge, len(d.Edges)),
		Viewport: d.Viewport.Clone(),
	}
	for i := range d.Nodes {
		out.Nodes[i] = d.Nodes[i].Clone()
	}
	for i := range d.Edges {
		out.Edges[i] = d.Edges[i].Clone()
	}
	return out
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := n
	out.Position.Z = clonePtr(n.Position.Z)
	out.Size.Depth = clonePtr(n.Size.Depth)
	out.Style.Opacity = clonePtr(n.Style.Opacity)
	out.Style.FontSize = clonePtr(n.Style.FontSize)
	out.Rotation = clonePtr(n.Rotation)
	if n.Animation != nil {
		a := *n.Animation
		out.Animation = &a
	}
	out.Metadata = cloneMeta(n.Metadata)
	return out
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	out := e
	out.Style.Width = clonePtr(e.Style.Width)
	return out
}

// Clone returns a deep copy of v.
func (v Viewport) Clone() Viewport {
	out := v
	out.Z = clonePtr(v.Z)
	out.Rotation = clonePtr(v.Rotation)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneMeta copies nested maps and slices; scalar values are shared.
func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMeta(t)
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = cloneValue(t[i])
		}
		return s
	default:
		return v
	}
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }
