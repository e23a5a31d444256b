package store

import (
	"slices"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// SelectNode selects the node with id. Without additive the previous
// selection (nodes and edges) is replaced. It reports false for an
// unknown id.
func (s *Store) SelectNode(id string, additive bool) bool {
	if _, ok := s.data.Node(id); !ok {
		return false
	}
	if !additive {
		s.selNodes, s.selEdges = s.selNodes[:0], s.selEdges[:0]
	}
	if !slices.Contains(s.selNodes, id) {
		s.selNodes = append(s.selNodes, id)
	}
	s.emit(OpSelection, id)
	return true
}

// SelectEdge selects the edge with id. Without additive the previous
// selection is replaced. It reports false for an unknown id.
func (s *Store) SelectEdge(id string, additive bool) bool {
	if _, ok := s.data.Edge(id); !ok {
		return false
	}
	if !additive {
		s.selNodes, s.selEdges = s.selNodes[:0], s.selEdges[:0]
	}
	if !slices.Contains(s.selEdges, id) {
		s.selEdges = append(s.selEdges, id)
	}
	s.emit(OpSelection, id)
	return true
}

// DeselectAll clears the selection.
func (s *Store) DeselectAll() {
	if len(s.selNodes) == 0 && len(s.selEdges) == 0 {
		return
	}
	s.selNodes, s.selEdges = s.selNodes[:0], s.selEdges[:0]
	s.emit(OpSelection)
}

// IsSelected reports whether the node or edge with id is selected.
func (s *Store) IsSelected(id string) bool {
	return slices.Contains(s.selNodes, id) || slices.Contains(s.selEdges, id)
}

// SelectedNodes returns copies of the selected nodes in selection order.
func (s *Store) SelectedNodes() []graph.Node {
	out := make([]graph.Node, 0, len(s.selNodes))
	for _, id := range s.selNodes {
		if n, ok := s.data.Node(id); ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// SelectedEdges returns copies of the selected edges in selection order.
func (s *Store) SelectedEdges() []graph.Edge {
	out := make([]graph.Edge, 0, len(s.selEdges))
	for _, id := range s.selEdges {
		if e, ok := s.data.Edge(id); ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// pruneSelection drops selected ids that no longer exist.
func (s *Store) pruneSelection() {
	s.selNodes = slices.DeleteFunc(s.selNodes, func(id string) bool {
		_, ok := s.data.Node(id)
		return !ok
	})
	s.selEdges = slices.DeleteFunc(s.selEdges, func(id string) bool {
		_, ok := s.data.Edge(id)
		return !ok
	})
}
