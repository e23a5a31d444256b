package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/cache"
	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/layout"
)

const flowchart = `graph TD
    A[Start] --> B{{config.yaml}}
    B --> C(docs)
    click A callback
`

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecute(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	opts := Options{
		Source:       []byte(flowchart),
		SourceFormat: codec.FormatMermaid,
		Seed:         3,
		Formats:      []string{"svg", "mermaid", "png"},
		PixelWidth:   320,
		PixelHeight:  240,
	}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want the click line", res.Warnings)
	}
	if res.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run hit the cache: %+v", res.CacheInfo)
	}
	if !bytes.HasPrefix(res.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact is not a PNG")
	}
	if !strings.Contains(string(res.Artifacts["svg"]), "<svg") {
		t.Error("svg artifact is not an SVG")
	}
	if !strings.HasPrefix(string(res.Artifacts["mermaid"]), "graph") {
		t.Errorf("mermaid artifact = %q", res.Artifacts["mermaid"])
	}
	if res.DocHash == "" {
		t.Error("missing doc hash")
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.ImportHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", again.CacheInfo)
	}
	if again.DocHash != res.DocHash {
		t.Error("cached import changed the document hash")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo != (CacheInfo{}) {
		t.Errorf("refresh run hit the cache: %+v", fresh.CacheInfo)
	}
}

func TestExecuteLayout(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	src, err := codec.Export(ctx, codec.FormatJSON, stacked(), codec.ExportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Source: src, Layout: LayoutGrid, Resolve: true, Formats: []string{"json"}}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := layout.CheckCollisions(res.Data, layout.DefaultConfig()); len(got) != 0 {
		t.Errorf("grid + resolve left collisions: %v", got)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("first layout hit the cache")
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LayoutHit {
		t.Error("second layout missed the cache")
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := newRunner(t)
	_, err := r.Execute(context.Background(), Options{Source: []byte("{}"), Formats: []string{"pdf"}})
	if err == nil || !strings.Contains(err.Error(), "invalid options") {
		t.Errorf("err = %v", err)
	}
}

func TestExecuteImportError(t *testing.T) {
	r := newRunner(t)
	_, err := r.Execute(context.Background(), Options{Source: []byte("{broken")})
	if err == nil || !strings.Contains(err.Error(), "import json") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateLayoutLeavesInput(t *testing.T) {
	d := stacked()
	out := GenerateLayout(d, Options{Layout: LayoutOrganize, Iterations: 20})
	if d.Nodes[0].Position != (graph.Vec{X: 400, Y: 300}) {
		t.Error("GenerateLayout modified its input")
	}
	if len(out.Nodes) != len(d.Nodes) {
		t.Errorf("layout changed node count to %d", len(out.Nodes))
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("runner = %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}

func stacked() graph.Data {
	d := graph.New()
	for _, id := range []string{"a", "b", "c"} {
		d.Nodes = append(d.Nodes, graph.Node{
			ID: id, Kind: graph.KindText,
			Position: graph.Vec{X: 400, Y: 300},
			Size:     graph.Size{Width: 100, Height: 50},
		})
	}
	d.Edges = []graph.Edge{{ID: "e1", From: "a", To: "b"}}
	return d
}
