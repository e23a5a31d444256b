package codec_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/graph"
)

func ExampleExport_mermaid() {
	d := graph.Data{
		Nodes: []graph.Node{
			{ID: "A", Kind: graph.KindText, Text: "Start", Size: graph.Size{Width: 200, Height: 100}},
			{ID: "B", Kind: graph.KindText, Text: "End", Size: graph.Size{Width: 200, Height: 100}},
		},
		Edges: []graph.Edge{{ID: "e1", From: "A", To: "B", Arrow: true}},
	}

	out, err := codec.Export(context.Background(), codec.FormatMermaid, d, codec.ExportOptions{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(string(out))
	// Output:
	// graph TD
	//     A[Start]
	//     B[End]
	//     A --> B
}
