package codec

import (
	"bytes"
	"encoding/json"
	"encoding/xml"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
)

type xmlCanvas struct {
	XMLName  xml.Name     `xml:"canvas"`
	Version  int          `xml:"version,attr,omitempty"`
	Viewport *xmlViewport `xml:"viewport"`
	Nodes    []xmlNode    `xml:"nodes>node"`
	Edges    []xmlEdge    `xml:"edges>edge"`
}

type xmlViewport struct {
	X        float64  `xml:"x,attr"`
	Y        float64  `xml:"y,attr"`
	Z        *float64 `xml:"z,attr,omitempty"`
	Zoom     *float64 `xml:"zoom,attr"`
	Rotation *float64 `xml:"rotation,attr,omitempty"`
}

type xmlNode struct {
	ID        string        `xml:"id,attr"`
	Type      string        `xml:"type,attr"`
	Rotation  *float64      `xml:"rotation,attr,omitempty"`
	Position  *xmlPosition  `xml:"position"`
	Size      *xmlSize      `xml:"size"`
	Text      string        `xml:"text,omitempty"`
	Style     *xmlNodeStyle `xml:"style"`
	Animation *xmlAnimation `xml:"animation"`
	Metadata  string        `xml:"metadata,omitempty"`
}

type xmlPosition struct {
	X *float64 `xml:"x,attr"`
	Y *float64 `xml:"y,attr"`
	Z *float64 `xml:"z,attr,omitempty"`
}

type xmlSize struct {
	Width  float64  `xml:"width,attr"`
	Height float64  `xml:"height,attr"`
	Depth  *float64 `xml:"depth,attr,omitempty"`
}

type xmlNodeStyle struct {
	Color           string   `xml:"color,attr,omitempty"`
	BackgroundColor string   `xml:"backgroundColor,attr,omitempty"`
	BorderColor     string   `xml:"borderColor,attr,omitempty"`
	Opacity         *float64 `xml:"opacity,attr,omitempty"`
	FontSize        *float64 `xml:"fontSize,attr,omitempty"`
	FontFamily      string   `xml:"fontFamily,attr,omitempty"`
}

type xmlAnimation struct {
	Kind     string `xml:"kind,attr"`
	Duration int    `xml:"duration,attr"`
	Loop     bool   `xml:"loop,attr"`
}

type xmlEdge struct {
	ID       string        `xml:"id,attr"`
	From     string        `xml:"from,attr"`
	To       string        `xml:"to,attr"`
	FromSide string        `xml:"fromSide,attr,omitempty"`
	ToSide   string        `xml:"toSide,attr,omitempty"`
	Arrow    bool          `xml:"arrow,attr"`
	Animated bool          `xml:"animated,attr,omitempty"`
	Label    string        `xml:"label,omitempty"`
	Style    *xmlEdgeStyle `xml:"style"`
}

type xmlEdgeStyle struct {
	Color     string   `xml:"color,attr,omitempty"`
	Width     *float64 `xml:"width,attr,omitempty"`
	DashStyle string   `xml:"dashStyle,attr,omitempty"`
}

func encodeXML(d graph.Data, opts ExportOptions) ([]byte, error) {
	doc := xmlCanvas{Version: SchemaVersion}
	vp := d.Viewport.Clone()
	doc.Viewport = &xmlViewport{X: vp.X, Y: vp.Y, Z: vp.Z, Zoom: &vp.Zoom, Rotation: vp.Rotation}

	for _, n := range d.Clone().Nodes {
		xn := xmlNode{
			ID:       n.ID,
			Type:     string(n.Kind),
			Rotation: n.Rotation,
			Position: &xmlPosition{X: graph.Float(n.Position.X), Y: graph.Float(n.Position.Y), Z: n.Position.Z},
			Size:     &xmlSize{Width: n.Size.Width, Height: n.Size.Height, Depth: n.Size.Depth},
			Text:     n.Text,
		}
		if n.Style != (graph.NodeStyle{}) {
			s := xmlNodeStyle(n.Style)
			xn.Style = &s
		}
		if a := n.Animation; a != nil {
			xn.Animation = &xmlAnimation{Kind: string(a.Kind), Duration: a.DurationMs, Loop: a.Loop}
		}
		if len(n.Metadata) > 0 {
			meta, err := json.Marshal(n.Metadata)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "encode metadata of node %q", n.ID)
			}
			xn.Metadata = string(meta)
		}
		doc.Nodes = append(doc.Nodes, xn)
	}
	for _, e := range d.Clone().Edges {
		xe := xmlEdge{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			FromSide: string(e.FromSide),
			ToSide:   string(e.ToSide),
			Arrow:    e.Arrow,
			Animated: e.Animated,
			Label:    e.Label,
		}
		if e.Style != (graph.EdgeStyle{}) {
			s := xmlEdgeStyle(e.Style)
			xe.Style = &s
		}
		doc.Edges = append(doc.Edges, xe)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode xml")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// decodeXML is strict: every node needs an id, a type and a position with
// x and y; every edge needs id, from and to.
func decodeXML(b []byte, _ ImportOptions, _ *warnings) (graph.Data, bool, error) {
	var doc xmlCanvas
	if err := xml.Unmarshal(b, &doc); err != nil {
		return graph.Data{}, false, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse xml")
	}

	d := graph.New()
	if vp := doc.Viewport; vp != nil {
		d.Viewport = graph.Viewport{X: vp.X, Y: vp.Y, Z: vp.Z, Zoom: 1, Rotation: vp.Rotation}
		if vp.Zoom != nil {
			d.Viewport.Zoom = *vp.Zoom
		}
	}

	for i, xn := range doc.Nodes {
		if xn.ID == "" {
			return graph.Data{}, false, errs.Validation("nodes", i, "", "id", "missing id attribute")
		}
		if xn.Type == "" {
			return graph.Data{}, false, errs.Validation("nodes", i, xn.ID, "type", "missing type attribute")
		}
		if xn.Position == nil {
			return graph.Data{}, false, errs.Validation("nodes", i, xn.ID, "position", "missing <position> element")
		}
		if xn.Position.X == nil || xn.Position.Y == nil {
			return graph.Data{}, false, errs.Validation("nodes", i, xn.ID, "position", "<position> needs x and y")
		}
		n := graph.Node{
			ID:       xn.ID,
			Kind:     graph.Kind(xn.Type),
			Text:     xn.Text,
			Rotation: xn.Rotation,
			Position: graph.Vec{X: *xn.Position.X, Y: *xn.Position.Y, Z: xn.Position.Z},
		}
		if xn.Size != nil {
			n.Size = graph.Size{Width: xn.Size.Width, Height: xn.Size.Height, Depth: xn.Size.Depth}
		}
		if xn.Style != nil {
			n.Style = graph.NodeStyle(*xn.Style)
		}
		if a := xn.Animation; a != nil {
			n.Animation = &graph.Animation{Kind: graph.AnimationKind(a.Kind), DurationMs: a.Duration, Loop: a.Loop}
		}
		if xn.Metadata != "" {
			if err := json.Unmarshal([]byte(xn.Metadata), &n.Metadata); err != nil {
				return graph.Data{}, false, errs.Validation("nodes", i, xn.ID, "metadata", "metadata is not a JSON object")
			}
		}
		d.Nodes = append(d.Nodes, n)
	}

	for i, xe := range doc.Edges {
		for _, f := range []struct{ name, v string }{{"id", xe.ID}, {"from", xe.From}, {"to", xe.To}} {
			if f.v == "" {
				return graph.Data{}, false, errs.Validation("edges", i, xe.ID, f.name, "missing %s attribute", f.name)
			}
		}
		e := graph.Edge{
			ID:       xe.ID,
			From:     xe.From,
			To:       xe.To,
			FromSide: graph.Side(xe.FromSide),
			ToSide:   graph.Side(xe.ToSide),
			Arrow:    xe.Arrow,
			Animated: xe.Animated,
			Label:    xe.Label,
		}
		if xe.Style != nil {
			e.Style = graph.EdgeStyle(*xe.Style)
		}
		d.Edges = append(d.Edges, e)
	}
	return d, true, nil
}
