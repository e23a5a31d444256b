package scene

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

func TestArenaGenerationalKeys(t *testing.T) {
	var a arena
	k1 := a.insert(object{entityID: "a"})
	k2 := a.insert(object{entityID: "b"})
	if a.count() != 2 {
		t.Fatalf("count = %d, want 2", a.count())
	}

	if _, ok := a.remove(k1); !ok {
		t.Fatal("remove of a live key failed")
	}
	if _, ok := a.get(k1); ok {
		t.Error("removed key still resolves")
	}
	if _, ok := a.remove(k1); ok {
		t.Error("double remove succeeded")
	}

	k3 := a.insert(object{entityID: "c"})
	if k3.index != k1.index {
		t.Errorf("slot not reused: %v vs %v", k3, k1)
	}
	if _, ok := a.get(k1); ok {
		t.Error("stale key resolves after slot reuse")
	}
	if o, ok := a.get(k3); !ok || o.entityID != "c" {
		t.Errorf("get(k3) = %v, %v", o, ok)
	}
	if o, ok := a.get(k2); !ok || o.entityID != "b" {
		t.Errorf("get(k2) = %v, %v", o, ok)
	}
	if _, ok := a.get(Key{}); ok {
		t.Error("zero key resolves")
	}
	if got := len(a.keys()); got != 2 {
		t.Errorf("keys = %d, want 2", got)
	}
}

func TestCameraRayProjectRoundTrip(t *testing.T) {
	for _, m := range []Mode{Mode2D, Mode3D} {
		c := cameraFor(m, 4.0/3.0)
		p := v3.Vec{X: 120, Y: -45, Z: 5}
		nx, ny, depth, ok := c.Project(p)
		if !ok {
			t.Fatalf("%s: point behind camera", m)
		}
		origin, dir := c.Ray(nx, ny)
		// the point lies on the ray at some positive distance
		toP := p.Sub(origin)
		along := toP.Dot(dir)
		off := toP.Sub(dir.MulScalar(along)).Length()
		if along <= 0 || off > 1e-6 || depth <= 0 {
			t.Errorf("%s: along=%v off=%v depth=%v", m, along, off, depth)
		}
	}
}

func TestRayBox(t *testing.T) {
	half := v3.Vec{X: 50, Y: 25, Z: 5}
	origin := v3.Vec{Z: 100}
	down := v3.Vec{Z: -1}

	tests := []struct {
		name   string
		tr     Transform
		origin v3.Vec
		want   bool
		dist   float64
	}{
		{"center", Transform{Scale: 1}, origin, true, 95},
		{"edge inside", Transform{Scale: 1}, v3.Vec{X: 49, Y: 24, Z: 100}, true, 95},
		{"outside", Transform{Scale: 1}, v3.Vec{X: 51, Z: 100}, false, 0},
		{"translated", Transform{Position: v3.Vec{X: 200}, Scale: 1}, v3.Vec{X: 240, Z: 100}, true, 95},
		{"rotated", Transform{Rotation: math.Pi / 2, Scale: 1}, v3.Vec{Y: 45, Z: 100}, true, 95},
		{"rotated miss", Transform{Rotation: math.Pi / 2, Scale: 1}, v3.Vec{X: 45, Z: 100}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := rayBox(tt.origin, down, tt.tr, half)
			if ok != tt.want {
				t.Fatalf("hit = %v, want %v", ok, tt.want)
			}
			if ok && math.Abs(d-tt.dist) > 1e-9 {
				t.Errorf("distance = %v, want %v", d, tt.dist)
			}
		})
	}
}

func TestRaySegment(t *testing.T) {
	a, b := v3.Vec{X: -100}, v3.Vec{X: 100}
	down := v3.Vec{Z: -1}
	if d, ok := raySegment(v3.Vec{X: 10, Y: 3, Z: 50}, down, a, b, 4); !ok || math.Abs(d-50) > 1e-9 {
		t.Errorf("near miss within radius: d=%v ok=%v", d, ok)
	}
	if _, ok := raySegment(v3.Vec{X: 10, Y: 5, Z: 50}, down, a, b, 4); ok {
		t.Error("ray outside radius reported a hit")
	}
	if _, ok := raySegment(v3.Vec{X: 105, Z: 50}, down, a, b, 4); ok {
		t.Error("ray beyond the segment end reported a hit")
	}
}

func TestTransformInverse(t *testing.T) {
	tr := Transform{Position: v3.Vec{X: 3, Y: -2, Z: 7}, Rotation: 0.7, Spin: -0.3, Scale: 1.5}
	p := v3.Vec{X: 1, Y: 2, Z: 3}
	back := tr.inverse(tr.Apply(p), true)
	if back.Sub(p).Length() > 1e-9 {
		t.Errorf("inverse(Apply(p)) = %v, want %v", back, p)
	}
}

func TestAttachPoint(t *testing.T) {
	n := boxNode(100, 100)
	if p := attachPoint(&n, "right", n.Position); p.X != 150 || p.Y != 100 {
		t.Errorf("right side = %+v", p)
	}
	toward := n.Position
	toward.X += 300
	if p := attachPoint(&n, "", toward); p.X != 150 || p.Y != 100 {
		t.Errorf("border toward +x = %+v", p)
	}
}

func boxNode(x, y float64) graph.Node {
	return graph.Node{ID: "n", Kind: graph.KindText, Position: graph.Vec{X: x, Y: y}, Size: graph.Size{Width: 100, Height: 50}}
}
