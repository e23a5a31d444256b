package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// edgeHitTolerance widens edges for picking, in scene units.
const edgeHitTolerance = 4.0

// HitTest casts a ray through the pointer position (pixels, origin at the
// top-left of the surface) and returns the nearest node or edge it hits.
func (r *Renderer) HitTest(x, y float64) (Hit, bool) {
	_, hit, ok := r.pick(x, y)
	return hit, ok
}

func (r *Renderer) pick(x, y float64) (Key, Hit, bool) {
	if r.disposed || r.width <= 0 || r.height <= 0 {
		return Key{}, Hit{}, false
	}
	nx, ny := ToNDC(x, y, r.width, r.height)
	origin, dir := r.camera.Ray(nx, ny)

	var best Hit
	var bestKey Key
	found := false
	for _, k := range r.arena.keys() {
		o, _ := r.arena.get(k)
		var t float64
		var ok bool
		switch o.kind {
		case ObjectNode:
			t, ok = rayBox(origin, dir, o.transform, o.half)
		case ObjectEdge:
			t, ok = raySegment(origin, dir, o.from, o.to, o.width/2+edgeHitTolerance)
		}
		if ok && (!found || t < best.Distance) {
			best = Hit{ID: o.entityID, Kind: o.kind, Distance: t}
			bestKey = k
			found = true
		}
	}
	return bestKey, best, found
}

// Hover highlights the object under the pointer and clears the previous
// highlight. It returns the hovered object, if any.
func (r *Renderer) Hover(x, y float64) (Hit, bool) {
	k, hit, ok := r.pick(x, y)
	if k != r.hovered {
		r.setEmissive(r.hovered, false)
		r.hovered = Key{}
		if ok {
			r.setEmissive(k, true)
			r.hovered = k
		}
	}
	return hit, ok
}

// Hovered returns the id and kind of the highlighted object.
func (r *Renderer) Hovered() (string, ObjectKind, bool) {
	o, ok := r.arena.get(r.hovered)
	if !ok {
		return "", "", false
	}
	return o.entityID, o.kind, true
}

// Click hit-tests the pointer position and forwards a hit to the OnSelect
// handler.
func (r *Renderer) Click(x, y float64) (Hit, bool) {
	hit, ok := r.HitTest(x, y)
	if ok && r.onSelect != nil {
		r.onSelect(hit)
	}
	return hit, ok
}

func (r *Renderer) setEmissive(k Key, on bool) {
	o, ok := r.arena.get(k)
	if !ok || r.ctx == nil {
		return
	}
	for i := range o.parts {
		p := &o.parts[i]
		p.mat.Emissive = on
		if err := r.ctx.UpdateMaterial(p.material, p.mat); err != nil {
			r.logger.Warn("update material", "error", err)
		}
	}
}

// rayBox intersects a ray with a transformed box of half extents half
// using the slab method in the box's local space. It returns the ray
// parameter of the entry point.
func rayBox(origin, dir v3.Vec, t Transform, half v3.Vec) (float64, bool) {
	o := t.inverse(origin, true)
	d := t.inverse(dir, false)

	tmin, tmax := math.Inf(-1), math.Inf(1)
	for _, ax := range [3][3]float64{{o.X, d.X, half.X}, {o.Y, d.Y, half.Y}, {o.Z, d.Z, half.Z}} {
		oa, da, h := ax[0], ax[1], ax[2]
		if math.Abs(da) < 1e-12 {
			if oa < -h || oa > h {
				return 0, false
			}
			continue
		}
		t1, t2 := (-h-oa)/da, (h-oa)/da
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

// raySegment reports whether the ray passes within radius of segment ab.
// It returns the ray parameter of the closest approach.
func raySegment(origin, dir, a, b v3.Vec, radius float64) (float64, bool) {
	v := b.Sub(a)
	w := origin.Sub(a)
	bb := dir.Dot(v)
	c := v.Dot(v)
	d := dir.Dot(w)
	e := v.Dot(w)

	var s float64 // segment parameter
	if denom := c - bb*bb; c > 0 && denom > 1e-12 {
		s = clamp01((e - bb*d) / denom)
	}
	t := a.Add(v.MulScalar(s)).Sub(origin).Dot(dir)
	if t < 0 {
		t = 0
		if c > 0 {
			s = clamp01(e / c)
		}
	}
	closestRay := origin.Add(dir.MulScalar(t))
	closestSeg := a.Add(v.MulScalar(s))
	if closestRay.Sub(closestSeg).Length() > radius {
		return 0, false
	}
	return t, true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// inverse maps a scene point (or direction, when point is false) into the
// transform's local space.
func (t Transform) inverse(p v3.Vec, point bool) v3.Vec {
	if point {
		p = p.Sub(t.Position)
	}
	if t.Rotation != 0 {
		c, s := cosSin(-t.Rotation)
		p = v3.Vec{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c, Z: p.Z}
	}
	if t.Spin != 0 {
		c, s := cosSin(-t.Spin)
		p = v3.Vec{X: p.X*c + p.Z*s, Y: p.Y, Z: -p.X*s + p.Z*c}
	}
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return p.MulScalar(1 / scale)
}
