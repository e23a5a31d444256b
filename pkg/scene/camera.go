package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Camera is a perspective camera.
type Camera struct {
	Position v3.Vec
	Target   v3.Vec
	Up       v3.Vec
	FOV      float64 // vertical field of view in degrees
	Aspect   float64
	Near     float64
	Far      float64
}

const (
	cameraFOV      = 50.0
	cameraDistance = 650.0
	cameraNear     = 0.1
	cameraFar      = 10000.0
)

// cameraFor returns the camera used by mode m at the given aspect ratio.
func cameraFor(m Mode, aspect float64) Camera {
	c := Camera{
		Target: v3.Vec{},
		Up:     v3.Vec{Y: 1},
		FOV:    cameraFOV,
		Aspect: aspect,
		Near:   cameraNear,
		Far:    cameraFar,
	}
	switch m {
	case Mode3D:
		c.Position = v3.Vec{X: 400, Y: 350, Z: 650}
	default:
		c.Position = v3.Vec{Z: cameraDistance}
	}
	return c
}

// basis returns the camera's forward, right and up unit vectors.
func (c Camera) basis() (forward, right, up v3.Vec) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

func (c Camera) tanHalfFOV() float64 {
	return math.Tan(c.FOV * math.Pi / 360)
}

func (c Camera) aspect() float64 {
	if c.Aspect <= 0 {
		return 1
	}
	return c.Aspect
}

// Ray returns a ray from the camera through normalized device coordinates
// (x, y in [-1, 1], y up). The direction is a unit vector.
func (c Camera) Ray(ndcX, ndcY float64) (origin, dir v3.Vec) {
	forward, right, up := c.basis()
	t := c.tanHalfFOV()
	dir = forward.
		Add(right.MulScalar(ndcX * t * c.aspect())).
		Add(up.MulScalar(ndcY * t)).
		Normalize()
	return c.Position, dir
}

// Project maps a scene point to normalized device coordinates and its view
// depth. ok is false for points at or behind the near plane.
func (c Camera) Project(p v3.Vec) (ndcX, ndcY, depth float64, ok bool) {
	forward, right, up := c.basis()
	d := p.Sub(c.Position)
	depth = d.Dot(forward)
	if depth <= c.Near {
		return 0, 0, depth, false
	}
	t := c.tanHalfFOV()
	ndcX = d.Dot(right) / (depth * t * c.aspect())
	ndcY = d.Dot(up) / (depth * t)
	return ndcX, ndcY, depth, true
}

// ToPixels converts normalized device coordinates to pixel coordinates
// with the origin at the top-left.
func ToPixels(ndcX, ndcY float64, width, height int) (x, y float64) {
	return (ndcX + 1) / 2 * float64(width), (1 - ndcY) / 2 * float64(height)
}

// ToNDC converts pixel coordinates to normalized device coordinates.
func ToNDC(x, y float64, width, height int) (ndcX, ndcY float64) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return 2*x/float64(width) - 1, 1 - 2*y/float64(height)
}

func cosSin(a float64) (float64, float64) {
	return math.Cos(a), math.Sin(a)
}
