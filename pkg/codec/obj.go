package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// boxFaces lists the six quads of a box over corners 1..8, outward facing.
var boxFaces = [6][4]int{
	{1, 4, 3, 2}, // back  (-z)
	{5, 6, 7, 8}, // front (+z)
	{1, 2, 6, 5}, // bottom
	{4, 8, 7, 3}, // top
	{1, 5, 8, 4}, // left
	{2, 3, 7, 6}, // right
}

// encodeOBJ writes one axis-aligned box per node: all vertices first, then
// a group with six faces per node. Canvas y is flipped so the model is
// upright; z defaults to 0 and depth to graph.DefaultNodeDepth.
func encodeOBJ(d graph.Data, _ ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# nodecanvas OBJ export\n# nodes: %d\n", len(d.Nodes))

	for i := range d.Nodes {
		n := &d.Nodes[i]
		hw, hh := n.Size.Width/2, n.Size.Height/2
		hd := n.Size.DepthOr(graph.DefaultNodeDepth) / 2
		x, y, z := n.Position.X, -n.Position.Y, n.Position.ZOr(0)
		for _, c := range [8][3]float64{
			{x - hw, y - hh, z - hd}, {x + hw, y - hh, z - hd}, {x + hw, y + hh, z - hd}, {x - hw, y + hh, z - hd},
			{x - hw, y - hh, z + hd}, {x + hw, y - hh, z + hd}, {x + hw, y + hh, z + hd}, {x - hw, y + hh, z + hd},
		} {
			fmt.Fprintf(&buf, "v %g %g %g\n", c[0], c[1], c[2])
		}
	}

	for i := range d.Nodes {
		fmt.Fprintf(&buf, "g node_%s\n", objName(d.Nodes[i].ID))
		base := i * 8
		for _, f := range boxFaces {
			fmt.Fprintf(&buf, "f %d %d %d %d\n", base+f[0], base+f[1], base+f[2], base+f[3])
		}
	}
	return buf.Bytes(), nil
}

// objName makes an id safe for a group statement.
func objName(id string) string {
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r == '#' {
			return '_'
		}
		return r
	}, id)
}
