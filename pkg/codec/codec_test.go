package codec

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

func sample() graph.Data {
	d := graph.New()
	d.Nodes = []graph.Node{
		{
			ID: "A", Kind: graph.KindText, Text: "Start",
			Position: graph.Vec{X: 100, Y: 120},
			Size:     graph.Size{Width: 120, Height: 60},
			Style:    graph.NodeStyle{BackgroundColor: "#ffeeaa", Color: "#112233", Opacity: graph.Float(0.8)},
			Metadata: map[string]any{"owner": "ops", "tags": []any{"x", "y"}},
		},
		{
			ID: "B", Kind: graph.KindFile, Text: "notes/<b>&plan.md",
			Position:  graph.Vec{X: 400, Y: 300, Z: graph.Float(12)},
			Size:      graph.Size{Width: 160, Height: 60, Depth: graph.Float(20)},
			Rotation:  graph.Float(15),
			Animation: &graph.Animation{Kind: graph.AnimationFloat, DurationMs: 1500, Loop: true},
		},
		{ID: "C", Kind: graph.KindLink, Text: "https://example.com", Position: graph.Vec{X: 650, Y: 450}, Size: graph.Size{Width: 100, Height: 40}},
	}
	d.Edges = []graph.Edge{
		{ID: "e1", From: "A", To: "B", Arrow: true, Label: "writes", FromSide: graph.SideRight, ToSide: graph.SideLeft},
		{ID: "e2", From: "B", To: "C", Style: graph.EdgeStyle{Color: "#ff0000", Width: graph.Float(3), DashStyle: "dashed"}, Animated: true},
	}
	d.Viewport = graph.Viewport{X: -20, Y: 35, Zoom: 1.5, Rotation: graph.Float(0)}
	return d
}

func export(t *testing.T, f Format, d graph.Data, opts ExportOptions) string {
	t.Helper()
	out, err := Export(context.Background(), f, d, opts)
	if err != nil {
		t.Fatalf("Export(%s): %v", f, err)
	}
	return string(out)
}

func TestJSONRoundTrip(t *testing.T) {
	in := sample()
	out := export(t, FormatJSON, in, ExportOptions{IncludeMetadata: true})
	res, err := Import(context.Background(), FormatJSON, []byte(out), ImportOptions{Strict: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(res.Data, in) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", res.Data, in)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !strings.Contains(out, `"format": "nodecanvas"`) {
		t.Error("document metadata missing")
	}
}

func TestJSONExportWithoutMetadata(t *testing.T) {
	out := export(t, FormatJSON, sample(), ExportOptions{})
	if strings.Contains(out, `"nodeCount"`) {
		t.Errorf("document metadata written without IncludeMetadata:\n%s", out)
	}
	res, err := Import(context.Background(), FormatJSON, []byte(out), ImportOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Data, sample()) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", res.Data, sample())
	}
}

func TestXMLExportKeepsNodeMetadata(t *testing.T) {
	out := export(t, FormatXML, sample(), ExportOptions{})
	res, err := Import(context.Background(), FormatXML, []byte(out), ImportOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"owner": "ops", "tags": []any{"x", "y"}}
	if got := res.Data.Nodes[0].Metadata; !reflect.DeepEqual(got, want) {
		t.Errorf("metadata = %v, want %v", got, want)
	}
}

func TestJSONImportValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		strict  bool
		code    errs.Code
		id      string
		field   string
		dropped int
	}{
		{"not an object", `[1,2]`, false, errs.ErrCodeValidation, "", "", 0},
		{"syntax", `{"nodes": [`, false, errs.ErrCodeInvalidFormat, "", "", 0},
		{"nodes not array", `{"nodes": {}, "edges": []}`, false, errs.ErrCodeValidation, "", "", 0},
		{"edges missing", `{"nodes": []}`, false, errs.ErrCodeValidation, "", "", 0},
		{"node without id", `{"nodes": [{"position": {"x": 1, "y": 2}}], "edges": []}`, false, errs.ErrCodeValidation, "", "id", 0},
		{"node without position", `{"nodes": [{"id": "n1"}], "edges": []}`, false, errs.ErrCodeValidation, "n1", "position", 0},
		{"string coordinate", `{"nodes": [{"id": "n1", "position": {"x": "1", "y": 2}}], "edges": []}`, false, errs.ErrCodeValidation, "n1", "position.x", 0},
		{"duplicate node", `{"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}}, {"id": "n1", "position": {"x": 1, "y": 2}}], "edges": []}`, false, errs.ErrCodeValidation, "n1", "id", 0},
		{"bad opacity", `{"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}, "style": {"opacity": 2}}], "edges": []}`, false, errs.ErrCodeValidation, "n1", "style.opacity", 0},
		{"dangling edge strict", `{"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}}], "edges": [{"id": "e1", "from": "n1", "to": "zz"}]}`, true, errs.ErrCodeValidation, "e1", "to", 0},
		{"dangling edge lenient", `{"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}}], "edges": [{"id": "e1", "from": "n1", "to": "zz"}]}`, false, "", "", "", 1},
		{"duplicate edge lenient", `{"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}}], "edges": [{"id": "e1", "from": "n1", "to": "n1"}, {"id": "e1", "from": "n1", "to": "n1"}]}`, false, "", "", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Import(context.Background(), FormatJSON, []byte(tt.doc), ImportOptions{Strict: tt.strict})
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(res.Warnings) != tt.dropped {
					t.Errorf("warnings = %v, want %d", res.Warnings, tt.dropped)
				}
				return
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Fatalf("code = %q (%v), want %q", got, err, tt.code)
			}
			var ve *errs.ValidationError
			if errors.As(err, &ve) {
				if ve.ID != tt.id || ve.Field != tt.field {
					t.Errorf("id/field = %q/%q, want %q/%q", ve.ID, ve.Field, tt.id, tt.field)
				}
			}
		})
	}
}

func TestMermaidExport(t *testing.T) {
	d := graph.New()
	d.Nodes = []graph.Node{
		{ID: "A", Kind: graph.KindText, Text: "Start", Size: graph.Size{Width: 10, Height: 10}},
		{ID: "B", Kind: graph.KindText, Text: "End", Size: graph.Size{Width: 10, Height: 10}},
	}
	d.Edges = []graph.Edge{{ID: "e1", From: "A", To: "B", Arrow: true}}
	out := export(t, FormatMermaid, d, ExportOptions{})
	for _, want := range []string{"graph TD", "A[Start]", "B[End]", "A --> B"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out = export(t, FormatMermaid, sample(), ExportOptions{})
	for _, want := range []string{
		"B{{notes/<b>&plan.md}}",
		`C(https://example.com)`,
		"A -->|writes| B",
		"B --- C",
		"style A fill:#ffeeaa,color:#112233",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMermaidImport(t *testing.T) {
	src := `graph LR
    %% comment
    A[Start] --> B{{config.yaml}}
    B -->|reads| C(docs)
    C --- D
    E["quoted [x]"]
    style A fill:#f9f,color:#333
    click A callback
    this line is noise
`
	res, err := Import(context.Background(), FormatMermaid, []byte(src), ImportOptions{Seed: 7})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	d := res.Data
	if len(d.Nodes) != 5 || len(d.Edges) != 3 {
		t.Fatalf("got %d nodes, %d edges", len(d.Nodes), len(d.Edges))
	}
	want := map[string]struct {
		kind graph.Kind
		text string
	}{
		"A": {graph.KindText, "Start"},
		"B": {graph.KindFile, "config.yaml"},
		"C": {graph.KindLink, "docs"},
		"D": {graph.KindText, "D"},
		"E": {graph.KindText, "quoted [x]"},
	}
	for _, n := range d.Nodes {
		w := want[n.ID]
		if n.Kind != w.kind || n.Text != w.text {
			t.Errorf("node %s = %s %q, want %s %q", n.ID, n.Kind, n.Text, w.kind, w.text)
		}
		if n.Position.X < 50 || n.Position.X > 750 || n.Position.Y < 50 || n.Position.Y > 550 {
			t.Errorf("placeholder position %+v outside canvas", n.Position)
		}
	}
	if e := d.Edges[1]; e.From != "B" || e.To != "C" || e.Label != "reads" || !e.Arrow {
		t.Errorf("edge = %+v", e)
	}
	if d.Edges[2].Arrow {
		t.Error("--- should import without arrow")
	}
	if d.Nodes[0].Style.BackgroundColor != "#f9f" || d.Nodes[0].Style.Color != "#333" {
		t.Errorf("style = %+v", d.Nodes[0].Style)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2 ignored lines", res.Warnings)
	}

	again, _ := Import(context.Background(), FormatMermaid, []byte(src), ImportOptions{Seed: 7})
	if !reflect.DeepEqual(again.Data, d) {
		t.Error("same seed produced different placeholders")
	}
}

func TestMermaidImportEdgeForms(t *testing.T) {
	tests := []struct {
		line     string
		from, to string
		arrow    bool
		label    string
	}{
		{"A --> B", "A", "B", true, ""},
		{"A-->B", "A", "B", true, ""},
		{"A --- B", "A", "B", false, ""},
		{"A---B", "A", "B", false, ""},
		{"A -- B", "A", "B", false, ""},
		{"A--B", "A", "B", false, ""},
		{"A-->|uses|B", "A", "B", true, "uses"},
		{"svc-a --> svc.b", "svc-a", "svc.b", true, ""},
		{"x-1---y_2", "x-1", "y_2", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res, err := Import(context.Background(), FormatMermaid, []byte("graph TD\n"+tt.line+"\n"), ImportOptions{Strict: true})
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			d := res.Data
			if len(d.Nodes) != 2 || len(d.Edges) != 1 {
				t.Fatalf("got %d nodes, %d edges: %+v", len(d.Nodes), len(d.Edges), d.Nodes)
			}
			e := d.Edges[0]
			if e.From != tt.from || e.To != tt.to || e.Arrow != tt.arrow || e.Label != tt.label {
				t.Errorf("edge = %s->%s arrow=%v label=%q, want %s->%s arrow=%v label=%q",
					e.From, e.To, e.Arrow, e.Label, tt.from, tt.to, tt.arrow, tt.label)
			}
			if d.Nodes[0].ID != tt.from || d.Nodes[1].ID != tt.to {
				t.Errorf("nodes = %s, %s", d.Nodes[0].ID, d.Nodes[1].ID)
			}
		})
	}
}

func TestMermaidExportDistinctIDs(t *testing.T) {
	d := graph.New()
	for _, id := range []string{"a-b", "a_b", "a.b"} {
		d.Nodes = append(d.Nodes, graph.Node{ID: id, Kind: graph.KindText, Size: graph.Size{Width: 10, Height: 10}})
	}
	d.Edges = []graph.Edge{
		{ID: "e1", From: "a-b", To: "a_b", Arrow: true},
		{ID: "e2", From: "a_b", To: "a.b", Arrow: true},
	}
	out := export(t, FormatMermaid, d, ExportOptions{})
	for _, want := range []string{"a_b[a-b]", "a_b_2[a_b]", "a_b_3[a.b]", "a_b --> a_b_2", "a_b_2 --> a_b_3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	res, err := Import(context.Background(), FormatMermaid, []byte(out), ImportOptions{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data.Nodes) != 3 || len(res.Data.Edges) != 2 {
		t.Errorf("re-import got %d nodes, %d edges, want 3, 2", len(res.Data.Nodes), len(res.Data.Edges))
	}
}

func TestMermaidImportAutoOrganize(t *testing.T) {
	res, err := Import(context.Background(), FormatMermaid, []byte("graph TD\nA --> B\nB --> C\n"), ImportOptions{AutoOrganize: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []graph.Vec{{X: 150, Y: 125}, {X: 350, Y: 125}, {X: 150, Y: 275}}
	for i, n := range res.Data.Nodes {
		if n.Position.X != want[i].X || n.Position.Y != want[i].Y {
			t.Errorf("node %s at %+v, want %+v", n.ID, n.Position, want[i])
		}
	}
}

func TestMermaidRoundTrip(t *testing.T) {
	in := sample()
	out := export(t, FormatMermaid, in, ExportOptions{})
	res, err := Import(context.Background(), FormatMermaid, []byte(out), ImportOptions{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data.Nodes) != len(in.Nodes) || len(res.Data.Edges) != len(in.Edges) {
		t.Fatalf("got %d/%d, want %d/%d", len(res.Data.Nodes), len(res.Data.Edges), len(in.Nodes), len(in.Edges))
	}
	for i, n := range res.Data.Nodes {
		if n.ID != in.Nodes[i].ID || n.Text != in.Nodes[i].Text || n.Kind != in.Nodes[i].Kind {
			t.Errorf("node %d = %s %s %q", i, n.ID, n.Kind, n.Text)
		}
	}
	for i, e := range res.Data.Edges {
		if e.From != in.Edges[i].From || e.To != in.Edges[i].To || e.Arrow != in.Edges[i].Arrow || e.Label != in.Edges[i].Label {
			t.Errorf("edge %d = %+v", i, e)
		}
	}
}

func TestXMLRoundTrip(t *testing.T) {
	in := sample()
	out := export(t, FormatXML, in, ExportOptions{IncludeMetadata: true})
	if !strings.Contains(out, "notes/&lt;b&gt;&amp;plan.md") {
		t.Errorf("text not escaped:\n%s", out)
	}
	res, err := Import(context.Background(), FormatXML, []byte(out), ImportOptions{Strict: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(res.Data, in) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", res.Data, in)
	}
}

func TestXMLMissingPositionLeavesStoreUnchanged(t *testing.T) {
	s := store.New()
	if err := s.SetGraphData(sample()); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	doc := `<canvas>
  <viewport x="0" y="0" zoom="1"/>
  <nodes>
    <node id="a" type="text"><position x="1" y="2"/><text>ok</text></node>
    <node id="b" type="text"><text>no position</text></node>
  </nodes>
  <edges/>
</canvas>`
	res, err := Import(context.Background(), FormatXML, []byte(doc), ImportOptions{})
	if err == nil {
		if err := s.SetGraphData(res.Data); err != nil {
			t.Fatal(err)
		}
		t.Fatal("expected a validation error")
	}
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %T %v, want *ValidationError", err, err)
	}
	if ve.ID != "b" || ve.Field != "position" {
		t.Errorf("error = %+v, want node b position", ve)
	}
	if !strings.Contains(err.Error(), `id="b"`) {
		t.Errorf("message %q does not name the node", err)
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("store changed")
	}
}

func TestXMLStrictAttributes(t *testing.T) {
	tests := []struct {
		name, doc, field string
	}{
		{"node id", `<canvas><nodes><node type="text"><position x="1" y="1"/></node></nodes></canvas>`, "id"},
		{"node type", `<canvas><nodes><node id="a"><position x="1" y="1"/></node></nodes></canvas>`, "type"},
		{"position y", `<canvas><nodes><node id="a" type="text"><position x="1"/></node></nodes></canvas>`, "position"},
		{"edge from", `<canvas><nodes><node id="a" type="text"><position x="1" y="1"/></node></nodes><edges><edge id="e" to="a"/></edges></canvas>`, "from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(context.Background(), FormatXML, []byte(tt.doc), ImportOptions{})
			var ve *errs.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("err = %v, want validation of %s", err, tt.field)
			}
		})
	}
}

func TestSVGExport(t *testing.T) {
	out := export(t, FormatSVG, sample(), ExportOptions{})
	for _, want := range []string{"<svg", "<marker", `id="arrowhead"`, "<line", `rx="4"`, "writes", "notes/&lt;b&gt;&amp;plan.md", "fill:#ffffff"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Index(out, "<line") > strings.Index(out, `rx="4"`) {
		t.Error("edges should be drawn before nodes")
	}
	if !strings.Contains(out, "marker-end:url(#arrowhead)") {
		t.Error("arrow edge lacks a marker")
	}

	transparent := export(t, FormatSVG, sample(), ExportOptions{Transparent: true})
	if strings.Contains(transparent, "fill:#ffffff\"") {
		t.Error("transparent export has a background rect")
	}
}

func TestOBJExport(t *testing.T) {
	out := export(t, FormatOBJ, sample(), ExportOptions{})
	var verts, faces int
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "v "):
			verts++
		case strings.HasPrefix(line, "f "):
			faces++
			for _, idx := range strings.Fields(line)[1:] {
				if idx == "0" || len(idx) > 2 {
					t.Errorf("face index %s out of range", idx)
				}
			}
		}
	}
	if verts != 24 || faces != 18 {
		t.Errorf("verts=%d faces=%d, want 24/18", verts, faces)
	}
	if !strings.Contains(out, "g node_B\nf 9 12 11 10\n") {
		t.Errorf("group for B not found:\n%s", out)
	}
	if strings.Index(out, "g node_") < strings.LastIndex(out, "v ") {
		t.Error("vertices should precede groups")
	}
}

func TestDOTExport(t *testing.T) {
	out := export(t, FormatDOT, sample(), ExportOptions{})
	for _, want := range []string{"digraph canvas {", `"A" -> "B" [label="writes"]`, `"B" -> "C" [arrowhead=none`, `pos="100,-120!"`, "shape=note"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestUnsupportedFormats(t *testing.T) {
	ctx := context.Background()
	if _, err := Export(ctx, "png", sample(), ExportOptions{}); !errs.Is(err, errs.ErrCodeUnsupportedFormat) {
		t.Errorf("export png: err = %v", err)
	}
	for _, f := range []Format{FormatSVG, FormatOBJ, FormatDOT, FormatGraphviz, "yaml"} {
		if _, err := Import(ctx, f, []byte("x"), ImportOptions{}); !errs.Is(err, errs.ErrCodeUnsupportedFormat) {
			t.Errorf("import %s: err = %v", f, err)
		}
	}
	if _, err := ParseFormat("PNG"); !errs.Is(err, errs.ErrCodeUnsupportedFormat) {
		t.Errorf("ParseFormat: err = %v", err)
	}
	if f, err := ParseFormat(" Mermaid "); err != nil || f != FormatMermaid {
		t.Errorf("ParseFormat(Mermaid) = %q, %v", f, err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"board.json":     FormatJSON,
		"vault/x.canvas": FormatJSON,
		"out.SVG":        FormatSVG,
		"mesh.obj":       FormatOBJ,
		"flow.mmd":       FormatMermaid,
		"flow.mermaid":   FormatMermaid,
		"doc.xml":        FormatXML,
		"g.dot":          FormatDOT,
		"g.gv":           FormatDOT,
	}
	for path, want := range tests {
		if got, err := FormatFromPath(path); err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatFromPath("image.png"); !errs.Is(err, errs.ErrCodeUnsupportedFormat) {
		t.Errorf("png: err = %v", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 62.00 116.00" width="62" height="116"`) {
		t.Errorf("got %s", out)
	}
}
