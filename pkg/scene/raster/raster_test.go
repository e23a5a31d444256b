package raster

import (
	"bytes"
	"errors"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/nodecanvas/pkg/scene"
)

func TestContextTracksResources(t *testing.T) {
	c := NewContext(100, 100)
	g, err := c.CreateGeometry(scene.Geometry{Primitive: scene.PrimitiveBox, Width: 10, Height: 10, Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.CreateMaterial(scene.Material{Opacity: 1})
	if err != nil {
		t.Fatal(err)
	}
	if c.Live() != 2 {
		t.Fatalf("Live = %d, want 2", c.Live())
	}
	c.Release(g)
	c.Release(g)
	c.Release(9999)
	if c.Live() != 1 {
		t.Errorf("Live = %d, want 1", c.Live())
	}
	c.Release(m)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateMaterial(scene.Material{}); !errors.Is(err, ErrClosed) {
		t.Errorf("create after close: err = %v", err)
	}
}

func TestCreateGeometryRejectsMalformed(t *testing.T) {
	c := NewContext(10, 10)
	bad := []scene.Geometry{
		{Primitive: scene.PrimitiveBox, Width: 0, Height: 1},
		{Primitive: scene.PrimitiveLine, Points: []v3.Vec{{}}},
		{Primitive: scene.Primitive(42)},
	}
	for _, g := range bad {
		if _, err := c.CreateGeometry(g); err == nil {
			t.Errorf("CreateGeometry(%+v) succeeded", g)
		}
	}
	if c.Live() != 0 {
		t.Error("rejected geometry was tracked")
	}
}

func TestDrawAndEncode(t *testing.T) {
	c := NewContext(200, 150)
	box, _ := c.CreateGeometry(scene.Geometry{Primitive: scene.PrimitiveBox, Width: 40, Height: 30, Depth: 10})
	line, _ := c.CreateGeometry(scene.Geometry{Primitive: scene.PrimitiveLine, Points: []v3.Vec{{X: -50}, {X: 50}}})
	cone, _ := c.CreateGeometry(scene.Geometry{Primitive: scene.PrimitiveCone, Radius: 5, Height: 10, Points: []v3.Vec{{X: 40}, {X: 50}}})
	red, _ := c.CreateMaterial(scene.Material{Color: colorful.Color{R: 1}, Opacity: 1, LineWidth: 2, Dashed: true})

	cam := scene.Camera{Position: v3.Vec{Z: 300}, Up: v3.Vec{Y: 1}, FOV: 50, Aspect: 4.0 / 3.0, Near: 0.1, Far: 1000}
	f := scene.Frame{
		Width: 200, Height: 150, Camera: cam, Lighting: scene.DefaultLighting(),
		Items: []scene.DrawItem{
			{Geometry: box, Material: red, Transform: scene.Transform{Scale: 1}},
			{Geometry: line, Material: red},
			{Geometry: cone, Material: red},
		},
	}
	if err := c.Draw(f); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	img := c.Image()
	if img == nil || img.Bounds().Dx() != 200 || img.Bounds().Dy() != 150 {
		t.Fatalf("image = %v", img)
	}
	r, g, b, _ := img.At(100, 75).RGBA()
	if r <= g || r <= b {
		t.Errorf("center pixel not red: %d %d %d", r, g, b)
	}

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	f.Items = append(f.Items, scene.DrawItem{Geometry: 9999, Material: red})
	if err := c.Draw(f); err == nil {
		t.Error("Draw with a released geometry succeeded")
	}
}

func TestOffscreenPump(t *testing.T) {
	o := NewOffscreen(10, 10)
	var order []int
	o.RequestFrame(func(time.Time) { order = append(order, 1) })
	h := o.RequestFrame(func(time.Time) { order = append(order, 2) })
	o.RequestFrame(func(time.Time) {
		order = append(order, 3)
		o.RequestFrame(func(time.Time) { order = append(order, 4) })
	})
	o.CancelFrame(h)

	if n := o.Pump(time.Now()); n != 2 {
		t.Errorf("first pump ran %d callbacks, want 2", n)
	}
	if n := o.Pump(time.Now()); n != 1 {
		t.Errorf("second pump ran %d callbacks, want 1", n)
	}
	want := []int{1, 3, 4}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestOffscreenAcquireFailure(t *testing.T) {
	o := NewOffscreen(10, 10)
	o.FailAcquire(errors.New("boom"))
	if _, err := o.AcquireContext(); err == nil {
		t.Error("expected acquire error")
	}
	if err := o.EncodePNG(&bytes.Buffer{}); err == nil {
		t.Error("EncodePNG without context succeeded")
	}
}
