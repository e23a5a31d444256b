package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

const (
	planeThickness = 1.0
	coneRadius     = 6.0
	coneHeight     = 14.0
	edgeLineWidth  = 2.0
)

// kindColors are the fallback node colors per kind.
var kindColors = map[graph.Kind]string{
	graph.KindText:  "#6366f1",
	graph.KindFile:  "#10b981",
	graph.KindLink:  "#0ea5e9",
	graph.KindGroup: "#cbd5e1",
	graph.KindMedia: "#f59e0b",
}

const defaultEdgeColor = "#64748b"

// ToScene maps a canvas position to scene space.
func ToScene(p graph.Vec) v3.Vec {
	return v3.Vec{
		X: p.X - graph.CanvasWidth/2,
		Y: graph.CanvasHeight/2 - p.Y,
		Z: p.ZOr(0),
	}
}

// ParseColor parses a #rgb or #rrggbb color, falling back to def.
func ParseColor(s string, def colorful.Color) colorful.Color {
	if s == "" {
		return def
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return def
	}
	return c
}

func mustColor(hex string) colorful.Color {
	c, _ := colorful.Hex(hex)
	return c
}

func (r *Renderer) build(d graph.Data) error {
	for i := range d.Nodes {
		k, err := r.buildNode(&d.Nodes[i])
		if err != nil {
			return err
		}
		r.nodeKeys[d.Nodes[i].ID] = k
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		from, okFrom := d.Node(e.From)
		to, okTo := d.Node(e.To)
		if !okFrom || !okTo {
			r.logger.Debug("skipping edge with missing endpoint", "edge", e.ID)
			continue
		}
		k, err := r.buildEdge(e, from, to)
		if err != nil {
			return err
		}
		r.edgeKeys[e.ID] = k
	}
	return nil
}

func (r *Renderer) buildNode(n *graph.Node) (Key, error) {
	geo := Geometry{
		Primitive: PrimitiveBox,
		Width:     n.Size.Width,
		Height:    n.Size.Height,
		Depth:     n.Size.DepthOr(graph.DefaultNodeDepth),
	}
	pos := ToScene(n.Position)
	if n.Kind == graph.KindGroup {
		geo.Primitive = PrimitivePlane
		geo.Depth = planeThickness
		pos.Z -= geo.Depth
	}

	fallback := mustColor(kindColors[n.Kind])
	color := ParseColor(n.Style.BackgroundColor, ParseColor(n.Style.Color, fallback))
	mat := Material{Color: color, Opacity: 1}
	if n.Style.Opacity != nil {
		mat.Opacity = *n.Style.Opacity
	}

	p, err := r.createPart(geo, mat, true)
	if err != nil {
		return Key{}, err
	}
	t := Transform{Position: pos, Scale: 1}
	if n.Rotation != nil {
		// canvas rotation is clockwise in degrees; scene Y points up
		t.Rotation = -*n.Rotation * math.Pi / 180
	}
	o := object{
		entityID:  n.ID,
		kind:      ObjectNode,
		parts:     []part{p},
		base:      t,
		transform: t,
		half:      v3.Vec{X: geo.Width / 2, Y: geo.Height / 2, Z: geo.Depth / 2},
	}
	if n.Animation != nil {
		a := *n.Animation
		o.anim = &a
	}
	return r.arena.insert(o), nil
}

func (r *Renderer) buildEdge(e *graph.Edge, from, to *graph.Node) (Key, error) {
	a := ToScene(attachPoint(from, e.FromSide, to.Position))
	b := ToScene(attachPoint(to, e.ToSide, from.Position))

	mat := Material{
		Color:     ParseColor(e.Style.Color, mustColor(defaultEdgeColor)),
		Opacity:   1,
		Dashed:    e.Style.DashStyle != "" || e.Animated,
		LineWidth: edgeLineWidth,
	}
	if e.Style.Width != nil && *e.Style.Width > 0 {
		mat.LineWidth = *e.Style.Width
	}

	o := object{
		entityID: e.ID,
		kind:     ObjectEdge,
		from:     a,
		to:       b,
		width:    mat.LineWidth,
	}

	lineEnd := b
	dir := b.Sub(a)
	arrow := e.Arrow && dir.Length() > coneHeight
	if arrow {
		dir = dir.Normalize()
		lineEnd = b.Sub(dir.MulScalar(coneHeight))
	}
	line, err := r.createPart(Geometry{Primitive: PrimitiveLine, Points: []v3.Vec{a, lineEnd}}, mat, false)
	if err != nil {
		return Key{}, err
	}
	o.parts = append(o.parts, line)

	if arrow {
		coneMat := mat
		coneMat.Dashed = false
		cone, err := r.createPart(Geometry{
			Primitive: PrimitiveCone,
			Radius:    coneRadius,
			Height:    coneHeight,
			Points:    []v3.Vec{lineEnd, b},
		}, coneMat, false)
		if err != nil {
			r.releaseParts(o.parts)
			return Key{}, err
		}
		o.parts = append(o.parts, cone)
	}
	return r.arena.insert(o), nil
}

// createPart allocates a geometry and a material. On failure nothing is
// left allocated.
func (r *Renderer) createPart(g Geometry, m Material, movable bool) (part, error) {
	gid, err := r.ctx.CreateGeometry(g)
	if err != nil {
		return part{}, err
	}
	mid, err := r.ctx.CreateMaterial(m)
	if err != nil {
		r.ctx.Release(gid)
		return part{}, err
	}
	return part{geometry: gid, material: mid, mat: m, movable: movable}, nil
}

// attachPoint returns where an edge meets n in canvas space: the middle of
// side when given, otherwise the border point facing toward.
func attachPoint(n *graph.Node, side graph.Side, toward graph.Vec) graph.Vec {
	hw, hh := n.Size.Width/2, n.Size.Height/2
	p := n.Position
	switch side {
	case graph.SideTop:
		p.Y -= hh
		return p
	case graph.SideBottom:
		p.Y += hh
		return p
	case graph.SideLeft:
		p.X -= hw
		return p
	case graph.SideRight:
		p.X += hw
		return p
	}
	dx, dy := toward.X-p.X, toward.Y-p.Y
	if dx == 0 && dy == 0 {
		return p
	}
	t := math.Inf(1)
	if dx != 0 {
		t = hw / math.Abs(dx)
	}
	if dy != 0 {
		t = math.Min(t, hh/math.Abs(dy))
	}
	t = math.Min(t, 1)
	p.X += dx * t
	p.Y += dy * t
	return p
}
