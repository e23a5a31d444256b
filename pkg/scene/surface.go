package scene

import (
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"
)

// FrameFunc is invoked by the host once per display refresh.
type FrameFunc func(now time.Time)

// FrameHandle identifies a pending frame callback. Zero is never issued.
type FrameHandle uint64

// Surface is the host drawing area.
type Surface interface {
	// Size returns the drawable size in pixels.
	Size() (width, height int)
	// AcquireContext returns a drawing context bound to the surface.
	AcquireContext() (Context, error)
	// RequestFrame schedules fn for the next refresh.
	RequestFrame(fn FrameFunc) FrameHandle
	// CancelFrame drops a pending callback. Unknown handles are ignored.
	CancelFrame(h FrameHandle)
}

// ResourceID identifies a geometry or material inside a Context.
type ResourceID uint64

// Context owns GPU-side resources and draws frames.
type Context interface {
	CreateGeometry(g Geometry) (ResourceID, error)
	CreateMaterial(m Material) (ResourceID, error)
	UpdateMaterial(id ResourceID, m Material) error
	Release(id ResourceID)
	Draw(f Frame) error
	Close() error
}

// Primitive is the shape of a Geometry.
type Primitive int

// Geometry primitives.
const (
	PrimitiveBox Primitive = iota
	PrimitivePlane
	PrimitiveLine
	PrimitiveCone
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveBox:
		return "box"
	case PrimitivePlane:
		return "plane"
	case PrimitiveLine:
		return "line"
	case PrimitiveCone:
		return "cone"
	}
	return "unknown"
}

// Geometry describes a mesh.
//
// Boxes and planes are centered at the origin with the given extents and
// are placed by the DrawItem transform. Lines and cones are given in scene
// space: Points holds the line endpoints, or the cone base center followed
// by its tip.
type Geometry struct {
	Primitive Primitive
	Width     float64
	Height    float64
	Depth     float64
	Radius    float64
	Points    []v3.Vec
}

// Material describes surface appearance.
type Material struct {
	Color     colorful.Color
	Opacity   float64
	Emissive  bool
	Dashed    bool
	LineWidth float64
}

// Transform places a box or plane in the scene. Rotation turns about the
// Z axis and Spin about the Y axis, both in radians.
type Transform struct {
	Position v3.Vec
	Rotation float64
	Spin     float64
	Scale    float64
}

// Apply maps a local point into scene space.
func (t Transform) Apply(p v3.Vec) v3.Vec {
	s := t.Scale
	if s == 0 {
		s = 1
	}
	p = p.MulScalar(s)
	if t.Spin != 0 {
		c, sn := cosSin(t.Spin)
		p = v3.Vec{X: p.X*c + p.Z*sn, Y: p.Y, Z: -p.X*sn + p.Z*c}
	}
	if t.Rotation != 0 {
		c, sn := cosSin(t.Rotation)
		p = v3.Vec{X: p.X*c - p.Y*sn, Y: p.X*sn + p.Y*c, Z: p.Z}
	}
	return p.Add(t.Position)
}

// DrawItem pairs a geometry with a material and a placement.
type DrawItem struct {
	Geometry  ResourceID
	Material  ResourceID
	Transform Transform
}

// Lighting is the scene light setup.
type Lighting struct {
	Ambient     float64
	Directional float64
	Direction   v3.Vec // direction the light travels
	Shadows     bool
}

// DefaultLighting returns ambient 0.6 plus a shadow-casting directional
// light of intensity 0.8.
func DefaultLighting() Lighting {
	return Lighting{
		Ambient:     0.6,
		Directional: 0.8,
		Direction:   v3.Vec{X: -0.5, Y: -1, Z: -0.75}.Normalize(),
		Shadows:     true,
	}
}

// Frame is everything a Context needs to draw one image.
type Frame struct {
	Width      int
	Height     int
	Camera     Camera
	Lighting   Lighting
	Background colorful.Color
	Items      []DrawItem
}
