package codec

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// pointsPerInch converts canvas pixels to Graphviz inches.
const pointsPerInch = 72.0

// encodeDOT writes Graphviz DOT source. Node centers are emitted as pinned
// pos attributes (y flipped) so position-aware engines such as neato keep
// the canvas layout; dot itself ignores them.
func encodeDOT(d graph.Data, _ ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph canvas {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [color=\"#64748b\"];\n")
	buf.WriteString("\n")

	for i := range d.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Nodes[i].ID, strings.Join(dotNodeAttrs(&d.Nodes[i]), ", "))
	}

	buf.WriteString("\n")
	for i := range d.Edges {
		e := &d.Edges[i]
		attrs := dotEdgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func dotNodeAttrs(n *graph.Node) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", n.Label()),
		fmt.Sprintf("pos=\"%g,%g!\"", n.Position.X, -n.Position.Y),
		fmt.Sprintf("width=%g", n.Size.Width/pointsPerInch),
		fmt.Sprintf("height=%g", n.Size.Height/pointsPerInch),
	}
	switch n.Kind {
	case graph.KindFile:
		attrs = append(attrs, "shape=note")
	case graph.KindLink:
		attrs = append(attrs, "shape=ellipse")
	case graph.KindGroup:
		attrs = append(attrs, "style=\"rounded,dashed\"")
	}
	if n.Style.BackgroundColor != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", cssColor(n.Style.BackgroundColor, "#ffffff")))
	}
	if n.Style.BorderColor != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", cssColor(n.Style.BorderColor, "#000000")))
	}
	if n.Style.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fontcolor=%q", cssColor(n.Style.Color, "#000000")))
	}
	return attrs
}

func dotEdgeAttrs(e *graph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	if !e.Arrow {
		attrs = append(attrs, "arrowhead=none")
	}
	if e.Style.DashStyle != "" {
		attrs = append(attrs, "style=dashed")
	}
	if e.Style.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", cssColor(e.Style.Color, "#64748b")))
	}
	return attrs
}

// encodeGraphviz lays the diagram out with Graphviz and returns SVG.
func encodeGraphviz(d graph.Data, opts ExportOptions) ([]byte, error) {
	dot, err := encodeDOT(d, opts)
	if err != nil {
		return nil, err
	}
	return RenderDOT(context.Background(), dot)
}

// RenderDOT renders DOT source to SVG using Graphviz.
func RenderDOT(ctx context.Context, dot []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from a
// zero-origin viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
