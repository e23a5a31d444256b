package store

import (
	"slices"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

// DefaultMaxUndoLevels is the default undo stack capacity.
const DefaultMaxUndoLevels = 50

// Op names a store change.
type Op string

// Store change operations.
const (
	OpAddNode    Op = "add_node"
	OpRemoveNode Op = "remove_node"
	OpUpdateNode Op = "update_node"
	OpAddEdge    Op = "add_edge"
	OpRemoveEdge Op = "remove_edge"
	OpUpdateEdge Op = "update_edge"
	OpSetGraph   Op = "set_graph"
	OpLayout     Op = "layout"
	OpUndo       Op = "undo"
	OpRedo       Op = "redo"
	OpViewport   Op = "viewport"
	OpSelection  Op = "selection"
)

// Event describes a committed change. IDs lists the directly affected
// entities; cascaded edge removals are included for OpRemoveNode.
type Event struct {
	Op  Op       `json:"op"`
	IDs []string `json:"ids,omitempty"`
}

// Listener receives store events. Listeners run synchronously on the
// mutating goroutine and must not mutate the store.
type Listener func(Event)

// Store is the single owner of a diagram.
type Store struct {
	data    graph.Data
	undo    []graph.Data
	redo    []graph.Data
	maxUndo int

	selNodes []string
	selEdges []string

	ids     graph.IDGenerator
	canvasW float64
	canvasH float64
	logger  *log.Logger

	listeners map[int]Listener
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxUndoLevels sets the undo stack capacity. Values below 1 are ignored.
func WithMaxUndoLevels(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxUndo = n
		}
	}
}

// WithCanvasSize sets the logical canvas used by CenterView and FitToView.
func WithCanvasSize(w, h float64) Option {
	return func(s *Store) {
		if w > 0 && h > 0 {
			s.canvasW, s.canvasH = w, h
		}
	}
}

// WithIDGenerator sets the generator used for nodes and edges added
// without an id.
func WithIDGenerator(g graph.IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store holding an empty diagram.
func New(opts ...Option) *Store {
	s := &Store{
		data:      graph.New(),
		maxUndo:   DefaultMaxUndoLevels,
		ids:       graph.UUIDGenerator{},
		canvasW:   graph.CanvasWidth,
		canvasH:   graph.CanvasHeight,
		logger:    log.Default(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Reads
// =============================================================================

// Snapshot returns a deep copy of the current diagram.
func (s *Store) Snapshot() graph.Data {
	return s.data.Clone()
}

// Node returns a copy of the node with id.
func (s *Store) Node(id string) (graph.Node, bool) {
	if n, ok := s.data.Node(id); ok {
		return n.Clone(), true
	}
	return graph.Node{}, false
}

// Edge returns a copy of the edge with id.
func (s *Store) Edge(id string) (graph.Edge, bool) {
	if e, ok := s.data.Edge(id); ok {
		return e.Clone(), true
	}
	return graph.Edge{}, false
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int { return len(s.data.Nodes) }

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int { return len(s.data.Edges) }

// Viewport returns the current viewport.
func (s *Store) Viewport() graph.Viewport {
	return s.data.Viewport.Clone()
}

// Bounds returns the extent of all nodes, or {0, 0, 800, 600} when empty.
func (s *Store) Bounds() graph.Bounds {
	return s.data.Bounds()
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

func (s *Store) emit(op Op, ids ...string) {
	ev := Event{Op: op, IDs: ids}
	keys := make([]int, 0, len(s.listeners))
	for k := range s.listeners {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if l, ok := s.listeners[k]; ok {
			l(ev)
		}
	}
}

// =============================================================================
// History
// =============================================================================

// commit pushes the current state onto the undo stack, clears redo, applies
// mutate and notifies listeners.
func (s *Store) commit(op Op, ids []string, mutate func(d *graph.Data)) {
	s.undo = pushCapped(s.undo, s.data.Clone(), s.maxUndo)
	s.redo = s.redo[:0]
	mutate(&s.data)
	s.pruneSelection()
	s.logger.Debug("store mutation", "op", op, "ids", ids, "nodes", len(s.data.Nodes), "edges", len(s.data.Edges))
	observability.Store().OnMutation(string(op), len(s.data.Nodes), len(s.data.Edges))
	s.emit(op, ids...)
}

func pushCapped(stack []graph.Data, d graph.Data, max int) []graph.Data {
	stack = append(stack, d)
	if len(stack) > max {
		stack = slices.Delete(stack, 0, len(stack)-max)
	}
	return stack
}

// Undo restores the previous snapshot and reports whether one existed.
func (s *Store) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = pushCapped(s.redo, s.data, s.maxUndo)
	s.data = prev
	s.pruneSelection()
	observability.Store().OnHistory(string(OpUndo), len(s.undo), len(s.redo))
	s.emit(OpUndo)
	return true
}

// Redo re-applies the most recently undone snapshot and reports whether
// one existed.
func (s *Store) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = pushCapped(s.undo, s.data, s.maxUndo)
	s.data = next
	s.pruneSelection()
	observability.Store().OnHistory(string(OpRedo), len(s.undo), len(s.redo))
	s.emit(OpRedo)
	return true
}

// CanUndo reports whether Undo would succeed.
func (s *Store) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (s *Store) CanRedo() bool { return len(s.redo) > 0 }

// UndoDepth returns the number of snapshots on the undo stack.
func (s *Store) UndoDepth() int { return len(s.undo) }

// =============================================================================
// Whole-graph replacement
// =============================================================================

// SetGraphData validates d and atomically replaces the diagram with a copy.
// The viewport zoom is clamped before validation. On error the store is
// unchanged.
func (s *Store) SetGraphData(d graph.Data) error {
	next := d.Clone()
	if next.Nodes == nil {
		next.Nodes = []graph.Node{}
	}
	if next.Edges == nil {
		next.Edges = []graph.Edge{}
	}
	for i := range next.Nodes {
		if next.Nodes[i].Kind == "" {
			next.Nodes[i].Kind = graph.KindText
		}
	}
	next.Viewport.Zoom = graph.ClampZoom(next.Viewport.Zoom)
	if err := next.Validate(); err != nil {
		return err
	}
	s.commit(OpSetGraph, nil, func(cur *graph.Data) { *cur = next })
	return nil
}

// validationFor returns a *errors.ValidationError for the given section.
func validationFor(section, id, field, format string, args ...any) error {
	return errs.Validation(section, -1, id, field, format, args...)
}
