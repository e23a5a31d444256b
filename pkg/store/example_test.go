package store_test

import (
	"fmt"

	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

func ExampleStore_Undo() {
	s := store.New(store.WithMaxUndoLevels(10))

	a, _ := s.AddNode(graph.Node{ID: "a", Text: "alpha"})
	b, _ := s.AddNode(graph.Node{ID: "b", Text: "beta"})
	_, _ = s.AddEdge(graph.Edge{ID: "e", From: a, To: b, Arrow: true})
	fmt.Println("nodes:", s.NodeCount(), "edges:", s.EdgeCount())

	// Removing a node drops its edges in the same step.
	s.RemoveNode(a)
	fmt.Println("nodes:", s.NodeCount(), "edges:", s.EdgeCount())

	s.Undo()
	fmt.Println("nodes:", s.NodeCount(), "edges:", s.EdgeCount())
	// Output:
	// nodes: 2 edges: 1
	// nodes: 1 edges: 0
	// nodes: 2 edges: 1
}
