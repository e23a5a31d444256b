package codec

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

const (
	svgNodeFill   = "#ffffff"
	svgNodeStroke = "#94a3b8"
	svgTextColor  = "#1e293b"
	svgEdgeColor  = "#64748b"
	svgFontSize   = 14
	svgFontFamily = "system-ui,sans-serif"
	svgCornerR    = 4
)

// encodeSVG draws edges first, then nodes on top. Coordinates are shifted
// so the node bounds start at the padding.
func encodeSVG(d graph.Data, opts ExportOptions) ([]byte, error) {
	b := d.Bounds()
	pad := opts.Padding
	width := int(math.Ceil(b.Width() + 2*pad))
	height := int(math.Ceil(b.Height() + 2*pad))
	dx, dy := pad-b.MinX, pad-b.MinY
	px := func(v float64) int { return int(math.Round(v + dx)) }
	py := func(v float64) int { return int(math.Round(v + dy)) }

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)

	canvas.Def()
	canvas.Marker("arrowhead", 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	canvas.Path("M0,0 L10,5 L0,10 z", "fill:"+svgEdgeColor)
	canvas.MarkerEnd()
	canvas.DefEnd()

	if !opts.Transparent {
		canvas.Rect(0, 0, width, height, "fill:"+cssColor(opts.Background, "#ffffff"))
	}

	for i := range d.Edges {
		e := &d.Edges[i]
		from, okFrom := d.Node(e.From)
		to, okTo := d.Node(e.To)
		if !okFrom || !okTo {
			continue
		}
		x1, y1 := edgeEndpoint(from, to)
		x2, y2 := edgeEndpoint(to, from)
		style := edgeStyle(e)
		canvas.Line(px(x1), py(y1), px(x2), py(y2), style)
		if e.Label != "" {
			canvas.Text(px((x1+x2)/2), py((y1+y2)/2)-4, e.Label,
				fmt.Sprintf("fill:%s;font-size:12px;font-family:%s;text-anchor:middle", svgTextColor, svgFontFamily))
		}
	}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		minX, minY, _, _ := n.Rect()
		w, h := int(math.Round(n.Size.Width)), int(math.Round(n.Size.Height))
		canvas.Roundrect(px(minX), py(minY), w, h, svgCornerR, svgCornerR, nodeStyle(n))
		canvas.Text(px(n.Position.X), py(n.Position.Y), n.Label(), textStyle(n))
	}

	canvas.End()
	return buf.Bytes(), nil
}

// edgeEndpoint returns the point on a's border facing b.
func edgeEndpoint(a, b *graph.Node) (float64, float64) {
	dx, dy := b.Position.X-a.Position.X, b.Position.Y-a.Position.Y
	if dx == 0 && dy == 0 {
		return a.Position.X, a.Position.Y
	}
	t := math.Inf(1)
	if dx != 0 {
		t = a.Size.Width / 2 / math.Abs(dx)
	}
	if dy != 0 {
		t = math.Min(t, a.Size.Height/2/math.Abs(dy))
	}
	t = math.Min(t, 1)
	return a.Position.X + dx*t, a.Position.Y + dy*t
}

func edgeStyle(e *graph.Edge) string {
	width := 2.0
	if e.Style.Width != nil && *e.Style.Width > 0 {
		width = *e.Style.Width
	}
	s := fmt.Sprintf("stroke:%s;stroke-width:%g", cssColor(e.Style.Color, svgEdgeColor), width)
	switch e.Style.DashStyle {
	case "":
	case "dotted":
		s += ";stroke-dasharray:2,4"
	default:
		s += ";stroke-dasharray:6,4"
	}
	if e.Arrow {
		s += ";marker-end:url(#arrowhead)"
	}
	return s
}

func nodeStyle(n *graph.Node) string {
	s := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5",
		cssColor(n.Style.BackgroundColor, svgNodeFill),
		cssColor(n.Style.BorderColor, svgNodeStroke))
	if n.Style.Opacity != nil {
		s += fmt.Sprintf(";opacity:%g", *n.Style.Opacity)
	}
	return s
}

func textStyle(n *graph.Node) string {
	size := float64(svgFontSize)
	if n.Style.FontSize != nil && *n.Style.FontSize > 0 {
		size = *n.Style.FontSize
	}
	return fmt.Sprintf("fill:%s;font-size:%gpx;font-family:%s;text-anchor:middle;dominant-baseline:middle",
		cssColor(n.Style.Color, svgTextColor), size, svgFontFamily)
}
