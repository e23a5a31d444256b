package raster

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sort"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/nodecanvas/pkg/scene"
)

// ErrClosed is returned by a Context after Close.
var ErrClosed = errors.New("raster context closed")

const (
	coneSegments = 8
	emissiveMix  = 0.35
)

var white = colorful.Color{R: 1, G: 1, B: 1}

// Context is a software drawing context. It is safe for concurrent use.
type Context struct {
	mu         sync.Mutex
	width      int
	height     int
	next       scene.ResourceID
	geometries map[scene.ResourceID]scene.Geometry
	materials  map[scene.ResourceID]scene.Material
	last       *gg.Context
	draws      int
	closed     bool
}

// NewContext returns a context whose frames default to width x height.
func NewContext(width, height int) *Context {
	return &Context{
		width:      width,
		height:     height,
		geometries: make(map[scene.ResourceID]scene.Geometry),
		materials:  make(map[scene.ResourceID]scene.Material),
	}
}

// CreateGeometry implements scene.Context.
func (c *Context) CreateGeometry(g scene.Geometry) (scene.ResourceID, error) {
	if err := checkGeometry(g); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	c.next++
	g.Points = append([]v3.Vec(nil), g.Points...)
	c.geometries[c.next] = g
	return c.next, nil
}

func checkGeometry(g scene.Geometry) error {
	switch g.Primitive {
	case scene.PrimitiveBox, scene.PrimitivePlane:
		if g.Width <= 0 || g.Height <= 0 || g.Depth < 0 {
			return fmt.Errorf("%s: invalid extents %gx%gx%g", g.Primitive, g.Width, g.Height, g.Depth)
		}
	case scene.PrimitiveLine, scene.PrimitiveCone:
		if len(g.Points) != 2 {
			return fmt.Errorf("%s: want 2 points, got %d", g.Primitive, len(g.Points))
		}
	default:
		return fmt.Errorf("unknown primitive %d", g.Primitive)
	}
	return nil
}

// CreateMaterial implements scene.Context.
func (c *Context) CreateMaterial(m scene.Material) (scene.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	c.next++
	c.materials[c.next] = m
	return c.next, nil
}

// UpdateMaterial implements scene.Context.
func (c *Context) UpdateMaterial(id scene.ResourceID, m scene.Material) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, ok := c.materials[id]; !ok {
		return fmt.Errorf("unknown material %d", id)
	}
	c.materials[id] = m
	return nil
}

// Release implements scene.Context. Unknown ids are ignored.
func (c *Context) Release(id scene.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.geometries, id)
	delete(c.materials, id)
}

// Close implements scene.Context. Resources still live at Close stay
// counted by Live, which is how leaks show up.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Live returns the number of geometries and materials not yet released.
func (c *Context) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.geometries) + len(c.materials)
}

// Material returns the material stored under id.
func (c *Context) Material(id scene.ResourceID) (scene.Material, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.materials[id]
	return m, ok
}

// Draws returns the number of frames drawn.
func (c *Context) Draws() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draws
}

// Image returns the most recent frame, or nil before the first Draw.
func (c *Context) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	return c.last.Image()
}

// EncodePNG writes the most recent frame as PNG.
func (c *Context) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return errors.New("no frame drawn")
	}
	return c.last.EncodePNG(w)
}

// Draw implements scene.Context.
func (c *Context) Draw(f scene.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		w, h = c.width, c.height
	}

	var shapes []shape
	for _, it := range f.Items {
		g, ok := c.geometries[it.Geometry]
		if !ok {
			return fmt.Errorf("draw: unknown geometry %d", it.Geometry)
		}
		m, ok := c.materials[it.Material]
		if !ok {
			return fmt.Errorf("draw: unknown material %d", it.Material)
		}
		shapes = append(shapes, tessellate(g, m, it.Transform, f, w, h)...)
	}
	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].depth > shapes[j].depth })

	dc := gg.NewContext(w, h)
	bg := f.Background
	dc.SetRGB(bg.R, bg.G, bg.B)
	dc.Clear()
	for _, s := range shapes {
		s.paint(dc)
	}
	c.last = dc
	c.draws++
	return nil
}

// shape is a projected primitive ready to paint.
type shape struct {
	points [][2]float64
	depth  float64
	color  colorful.Color
	alpha  float64
	line   bool
	width  float64
	dashed bool
}

func (s shape) paint(dc *gg.Context) {
	c := s.color.Clamped()
	dc.SetRGBA(c.R, c.G, c.B, s.alpha)
	if s.line {
		dc.SetLineWidth(s.width)
		if s.dashed {
			dc.SetDash(6, 4)
		}
		dc.DrawLine(s.points[0][0], s.points[0][1], s.points[1][0], s.points[1][1])
		dc.Stroke()
		dc.SetDash()
		return
	}
	dc.MoveTo(s.points[0][0], s.points[0][1])
	for _, p := range s.points[1:] {
		dc.LineTo(p[0], p[1])
	}
	dc.ClosePath()
	dc.Fill()
}

func tessellate(g scene.Geometry, m scene.Material, t scene.Transform, f scene.Frame, w, h int) []shape {
	switch g.Primitive {
	case scene.PrimitiveLine:
		pts, depth, ok := project(f, w, h, g.Points[0], g.Points[1])
		if !ok {
			return nil
		}
		return []shape{{points: pts, depth: depth, color: baseColor(m), alpha: m.Opacity, line: true, width: m.LineWidth, dashed: m.Dashed}}
	case scene.PrimitiveCone:
		return cone(g, m, f, w, h)
	default:
		return box(g, m, t, f, w, h)
	}
}

// face indices into the corner list, counter-clockwise seen from outside.
var boxFaces = [6]struct {
	idx    [4]int
	normal v3.Vec
}{
	{[4]int{4, 5, 6, 7}, v3.Vec{Z: 1}},
	{[4]int{1, 0, 3, 2}, v3.Vec{Z: -1}},
	{[4]int{5, 1, 2, 6}, v3.Vec{X: 1}},
	{[4]int{0, 4, 7, 3}, v3.Vec{X: -1}},
	{[4]int{7, 6, 2, 3}, v3.Vec{Y: 1}},
	{[4]int{0, 1, 5, 4}, v3.Vec{Y: -1}},
}

func box(g scene.Geometry, m scene.Material, t scene.Transform, f scene.Frame, w, h int) []shape {
	hw, hh, hd := g.Width/2, g.Height/2, g.Depth/2
	local := [8]v3.Vec{
		{X: -hw, Y: -hh, Z: -hd}, {X: hw, Y: -hh, Z: -hd}, {X: hw, Y: hh, Z: -hd}, {X: -hw, Y: hh, Z: -hd},
		{X: -hw, Y: -hh, Z: hd}, {X: hw, Y: -hh, Z: hd}, {X: hw, Y: hh, Z: hd}, {X: -hw, Y: hh, Z: hd},
	}
	var corners [8]v3.Vec
	for i, p := range local {
		corners[i] = t.Apply(p)
	}
	origin := t.Apply(v3.Vec{})

	var out []shape
	for _, face := range boxFaces {
		normal := t.Apply(face.normal).Sub(origin).Normalize()
		quad := []v3.Vec{corners[face.idx[0]], corners[face.idx[1]], corners[face.idx[2]], corners[face.idx[3]]}
		center := quad[0].Add(quad[1]).Add(quad[2]).Add(quad[3]).MulScalar(0.25)
		if normal.Dot(center.Sub(f.Camera.Position)) >= 0 {
			continue
		}
		pts, depth, ok := project(f, w, h, quad...)
		if !ok {
			continue
		}
		out = append(out, shape{points: pts, depth: depth, color: shade(m, normal, f.Lighting), alpha: m.Opacity})
	}
	return out
}

func cone(g scene.Geometry, m scene.Material, f scene.Frame, w, h int) []shape {
	base, tip := g.Points[0], g.Points[1]
	axis := tip.Sub(base)
	if axis.Length() == 0 {
		return nil
	}
	axis = axis.Normalize()
	ref := v3.Vec{Z: 1}
	if math.Abs(axis.Dot(ref)) > 0.99 {
		ref = v3.Vec{Y: 1}
	}
	u := axis.Cross(ref).Normalize()
	v := axis.Cross(u)

	var ring [coneSegments]v3.Vec
	for i := range ring {
		a := 2 * math.Pi * float64(i) / coneSegments
		ring[i] = base.Add(u.MulScalar(g.Radius * math.Cos(a))).Add(v.MulScalar(g.Radius * math.Sin(a)))
	}
	var out []shape
	for i := range ring {
		a, b := ring[i], ring[(i+1)%coneSegments]
		normal := a.Sub(tip).Cross(b.Sub(tip)).Normalize()
		pts, depth, ok := project(f, w, h, tip, a, b)
		if !ok {
			continue
		}
		out = append(out, shape{points: pts, depth: depth, color: shade(m, normal, f.Lighting), alpha: m.Opacity})
	}
	return out
}

// project maps scene points to pixels and returns their mean view depth.
func project(f scene.Frame, w, h int, pts ...v3.Vec) ([][2]float64, float64, bool) {
	out := make([][2]float64, len(pts))
	sum := 0.0
	for i, p := range pts {
		nx, ny, depth, ok := f.Camera.Project(p)
		if !ok {
			return nil, 0, false
		}
		x, y := scene.ToPixels(nx, ny, w, h)
		out[i] = [2]float64{x, y}
		sum += depth
	}
	return out, sum / float64(len(pts)), true
}

func baseColor(m scene.Material) colorful.Color {
	if m.Emissive {
		return m.Color.BlendRgb(white, emissiveMix)
	}
	return m.Color
}

// shade applies Lambert lighting from the ambient and directional lights.
func shade(m scene.Material, normal v3.Vec, l scene.Lighting) colorful.Color {
	diffuse := math.Max(0, -normal.Dot(l.Direction))
	k := math.Min(1, l.Ambient+l.Directional*diffuse)
	c := baseColor(m)
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}
}
