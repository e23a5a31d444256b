package graph

import "math"

// =============================================================================
// Constants
// =============================================================================

// Zoom limits. Viewport writes are hard-clamped into this range.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// Logical canvas size used by view centering and layout defaults.
const (
	CanvasWidth  = 800.0
	CanvasHeight = 600.0
)

// Default node extents for nodes created without an explicit size.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 60.0
	DefaultNodeDepth  = 10.0
)

// Kind is the content kind of a node.
type Kind string

// Node kinds.
const (
	KindText  Kind = "text"
	KindFile  Kind = "file"
	KindLink  Kind = "link"
	KindGroup Kind = "group"
	KindMedia Kind = "media"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindFile, KindLink, KindGroup, KindMedia:
		return true
	}
	return false
}

// Side is the side of a node an edge attaches to.
type Side string

// Edge attachment sides.
const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Valid reports whether s is empty or a known side.
func (s Side) Valid() bool {
	switch s {
	case "", SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// AnimationKind selects the per-frame animation of a scene object.
type AnimationKind string

// Animation kinds.
const (
	AnimationFloat  AnimationKind = "float"
	AnimationRotate AnimationKind = "rotate"
	AnimationPulse  AnimationKind = "pulse"
)

// =============================================================================
// Node
// =============================================================================

// Vec is a position in canvas space. Z is optional and defaults to 0.
type Vec struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// ZOr returns Z or def when Z is unset.
func (v Vec) ZOr(def float64) float64 {
	if v.Z == nil {
		return def
	}
	return *v.Z
}

// Size is a node extent. Depth is optional.
type Size struct {
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Depth  *float64 `json:"depth,omitempty"`
}

// DepthOr returns Depth or def when Depth is unset.
func (s Size) DepthOr(def float64) float64 {
	if s.Depth == nil {
		return def
	}
	return *s.Depth
}

// NodeStyle holds optional presentation attributes. Empty strings and nil
// pointers mean "use the renderer default".
type NodeStyle struct {
	Color           string   `json:"color,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	BorderColor     string   `json:"borderColor,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty"`
	FontSize        *float64 `json:"fontSize,omitempty"`
	FontFamily      string   `json:"fontFamily,omitempty"`
}

// Animation describes a looping scene animation attached to a node.
type Animation struct {
	Kind       AnimationKind `json:"kind"`
	DurationMs int           `json:"durationMs"`
	Loop       bool          `json:"loop"`
}

// Node is a diagram element.
type Node struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Text      string         `json:"text,omitempty"`
	Position  Vec            `json:"position"`
	Size      Size           `json:"size"`
	Style     NodeStyle      `json:"style"`
	Rotation  *float64       `json:"rotation,omitempty"`
	Animation *Animation     `json:"animation,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Label returns Text if set, otherwise the ID.
func (n *Node) Label() string {
	if n.Text != "" {
		return n.Text
	}
	return n.ID
}

// Rect returns the node's extent as min/max corners.
func (n *Node) Rect() (minX, minY, maxX, maxY float64) {
	hw, hh := n.Size.Width/2, n.Size.Height/2
	return n.Position.X - hw, n.Position.Y - hh, n.Position.X + hw, n.Position.Y + hh
}

// =============================================================================
// Edge
// =============================================================================

// EdgeStyle holds optional edge presentation attributes.
type EdgeStyle struct {
	Color     string   `json:"color,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	DashStyle string   `json:"dashStyle,omitempty"`
}

// Edge connects two nodes of the same diagram.
type Edge struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	FromSide Side      `json:"fromSide,omitempty"`
	ToSide   Side      `json:"toSide,omitempty"`
	Style    EdgeStyle `json:"style"`
	Label    string    `json:"label,omitempty"`
	Arrow    bool      `json:"arrow"`
	Animated bool      `json:"animated,omitempty"`
}

// Touches reports whether the edge has nodeID as an endpoint.
func (e *Edge) Touches(nodeID string) bool {
	return e.From == nodeID || e.To == nodeID
}

// =============================================================================
// Viewport & Data
// =============================================================================

// Viewport is the visible window onto the canvas: a translation, a zoom
// factor and an optional rotation.
type Viewport struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Z        *float64 `json:"z,omitempty"`
	Zoom     float64  `json:"zoom"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// DefaultViewport returns the identity viewport.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN maps to 1.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// Data is a complete diagram.
type Data struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// New returns an empty diagram with the default viewport.
func New() Data {
	return Data{
		Nodes:    []Node{},
		Edges:    []Edge{},
		Viewport: DefaultViewport(),
	}
}

// NodeIndex returns the index of the node with id, or -1.
func (d *Data) NodeIndex(id string) int {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// EdgeIndex returns the index of the edge with id, or -1.
func (d *Data) EdgeIndex(id string) int {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

// Node returns a pointer to the node with id inside d.
func (d *Data) Node(id string) (*Node, bool) {
	if i := d.NodeIndex(id); i >= 0 {
		return &d.Nodes[i], true
	}
	return nil, false
}

// Edge returns a pointer to the edge with id inside d.
func (d *Data) Edge(id string) (*Edge, bool) {
	if i := d.EdgeIndex(id); i >= 0 {
		return &d.Edges[i], true
	}
	return nil, false
}

// Bounds is an axis-aligned rectangle in canvas space.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (x, y float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Bounds returns the extent of all nodes including their half sizes.
// An empty diagram reports the logical canvas {0, 0, 800, 600}.
func (d *Data) Bounds() Bounds {
	if len(d.Nodes) == 0 {
		return Bounds{0, 0, CanvasWidth, CanvasHeight}
	}
	b := Bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i := range d.Nodes {
		minX, minY, maxX, maxY := d.Nodes[i].Rect()
		b.MinX = math.Min(b.MinX, minX)
		b.MinY = math.Min(b.MinY, minY)
		b.MaxX = math.Max(b.MaxX, maxX)
		b.MaxY = math.Max(b.MaxY, maxY)
	}
	return b
}
