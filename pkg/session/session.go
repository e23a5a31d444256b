// Package session ties a diagram store, a scene renderer and a host
// together into one editing session.
//
// A Session opens a canvas file from the host vault, keeps the renderer in
// sync with every committed store change, applies UI [Command]s and saves
// the diagram back through the codec.
//
// # Lifecycle
//
//	sess, err := session.Open(ctx, adapter, "boards/plan.canvas")
//	if err != nil {
//	    return err // includes RESOURCE_ACQUISITION when the surface has no context
//	}
//	defer sess.Close()
//
//	sess.Apply(ctx, session.Command{Op: session.CmdAddNode, Node: &graph.Node{Text: "hello"}})
//	sess.Save(ctx)
//
// # Concurrency
//
// Every exported method takes the session lock, including [Session.Pump],
// which runs the surface's pending frame callbacks. Frame callbacks must
// only run from Pump, so a headless surface is never driven by its own
// Run loop while a session is attached. Store listeners registered with
// [Session.Subscribe] run under the lock and must not call back into the
// session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/codec"
	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

// DefaultStepsPerFrame is the number of layout iterations run per frame
// while organizing.
const DefaultStepsPerFrame = 10

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Session is one open canvas.
type Session struct {
	mu sync.Mutex

	host     host.Adapter
	store    *store.Store
	renderer *scene.Renderer
	logger   *log.Logger

	layoutCfg     layout.Config
	stepsPerFrame int
	storeOpts     []store.Option
	rendererOpts  []scene.Option

	path   string
	format codec.Format
	dirty  bool

	organize *organizeRun
	unsub    func()
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayoutConfig sets the configuration of organize, resolve and grid
// commands.
func WithLayoutConfig(cfg layout.Config) Option {
	return func(s *Session) { s.layoutCfg = cfg }
}

// WithStepsPerFrame sets how many layout iterations run per frame while
// organizing. Values below 1 are ignored.
func WithStepsPerFrame(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.stepsPerFrame = n
		}
	}
}

// WithStoreOptions passes options to the session's store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(s *Session) { s.storeOpts = append(s.storeOpts, opts...) }
}

// WithRendererOptions passes options to the session's renderer.
func WithRendererOptions(opts ...scene.Option) Option {
	return func(s *Session) { s.rendererOpts = append(s.rendererOpts, opts...) }
}

// Open attaches to the host, loads path from the host vault and starts the
// renderer on the host surface. A missing file opens an empty diagram that
// is created on the first save; an empty path opens an unsaved diagram.
//
// On failure the host is detached and nothing stays allocated.
func Open(ctx context.Context, h host.Adapter, path string, opts ...Option) (*Session, error) {
	s := &Session{
		host:          h,
		logger:        log.Default(),
		layoutCfg:     layout.DefaultConfig(),
		stepsPerFrame: DefaultStepsPerFrame,
		path:          path,
		format:        codec.FormatJSON,
	}
	for _, opt := range opts {
		opt(s)
	}

	if path != "" {
		f, err := codec.FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		s.format = f
	}

	if err := h.OnAttach(ctx); err != nil {
		return nil, err
	}
	if err := s.init(ctx); err != nil {
		h.OnDetach()
		return nil, err
	}
	return s, nil
}

func (s *Session) init(ctx context.Context) error {
	s.store = store.New(append([]store.Option{store.WithLogger(s.logger)}, s.storeOpts...)...)
	if s.path != "" {
		if err := s.load(ctx); err != nil {
			return err
		}
	}

	rendererOpts := append([]scene.Option{
		scene.WithLogger(s.logger),
		scene.OnSelect(s.onSelect),
	}, s.rendererOpts...)
	s.renderer = scene.New(rendererOpts...)
	if err := s.renderer.Initialize(s.host.Surface()); err != nil {
		return err
	}
	if err := s.renderer.RenderGraph(s.store.Snapshot()); err != nil {
		s.renderer.Dispose()
		return err
	}
	s.unsub = s.store.Subscribe(s.onEvent)
	s.logger.Info("session opened", "path", s.path, "nodes", s.store.NodeCount(), "edges", s.store.EdgeCount())
	return nil
}

func (s *Session) load(ctx context.Context) error {
	if !codec.CanImport(s.format) {
		return errs.UnsupportedFormat("import", string(s.format))
	}
	data, err := s.host.Vault().Read(ctx, s.path)
	if host.IsNotFound(err) {
		s.logger.Debug("new canvas", "path", s.path)
		return nil
	}
	if err != nil {
		return err
	}
	res, err := codec.Import(ctx, s.format, data, codec.ImportOptions{AutoOrganize: true, Logger: s.logger})
	if err != nil {
		return err
	}
	return s.store.SetGraphData(res.Data)
}

// onEvent resyncs the scene after content changes. Viewport and selection
// changes do not touch scene objects.
func (s *Session) onEvent(ev store.Event) {
	switch ev.Op {
	case store.OpSelection:
		return
	case store.OpViewport:
		s.dirty = true
		return
	}
	s.dirty = true
	if s.organize != nil {
		// Edits supersede a layout still in flight.
		s.cancelOrganize()
		s.logger.Debug("organize cancelled", "op", ev.Op)
	}
	if err := s.renderer.RenderGraph(s.store.Snapshot()); err != nil {
		s.logger.Error("resync scene", "op", ev.Op, "error", err)
	}
}

// onSelect forwards renderer clicks to the store selection.
func (s *Session) onSelect(h scene.Hit) {
	switch h.Kind {
	case scene.ObjectNode:
		s.store.SelectNode(h.ID, false)
	case scene.ObjectEdge:
		s.store.SelectEdge(h.ID, false)
	}
}

// Subscribe registers l for store events. The returned function removes it.
func (s *Session) Subscribe(l store.Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	unsub := s.store.Subscribe(l)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}
}

// Save writes the diagram to its path in the session format.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.path == "" {
		return errs.New(errs.ErrCodeInvalidInput, "session has no path; use SaveAs")
	}
	return s.save(ctx, s.path, s.format)
}

// SaveAs writes the diagram to path in the format implied by its extension
// and makes path the session path when that format can be read back.
func (s *Session) SaveAs(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	f, err := codec.FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := s.save(ctx, path, f); err != nil {
		return err
	}
	if codec.CanImport(f) {
		s.path, s.format = path, f
		s.dirty = false
	}
	return nil
}

func (s *Session) save(ctx context.Context, path string, f codec.Format) error {
	start := time.Now()
	out, err := codec.Export(ctx, f, s.store.Snapshot(), codec.ExportOptions{IncludeMetadata: true})
	if err != nil {
		return err
	}
	if err := s.host.Vault().Write(ctx, path, out); err != nil {
		return err
	}
	if path == s.path {
		s.dirty = false
	}
	s.logger.Info("saved canvas", "path", path, "format", f, "bytes", len(out), "duration", time.Since(start))
	return nil
}

// Export encodes the current diagram without writing it.
func (s *Session) Export(ctx context.Context, f codec.Format, opts codec.ExportOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return codec.Export(ctx, f, s.store.Snapshot(), opts)
}

// Pump runs the surface's pending frame callbacks when the surface is
// pumped manually (host.Headless). It returns the number of callbacks run.
func (s *Session) Pump(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	p, ok := s.host.Surface().(interface{ Pump(time.Time) int })
	if !ok {
		return 0
	}
	return p.Pump(now)
}

// State is a copy of the session's observable state.
type State struct {
	Data          graph.Data `json:"data"`
	SelectedNodes []string   `json:"selected_nodes,omitempty"`
	SelectedEdges []string   `json:"selected_edges,omitempty"`
	CanUndo       bool       `json:"can_undo"`
	CanRedo       bool       `json:"can_redo"`
	Mode          string     `json:"mode"`
	Organizing    bool       `json:"organizing"`
	Dirty         bool       `json:"dirty"`
}

// State returns a copy of the diagram and its editing state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	st := State{
		Data:       s.store.Snapshot(),
		CanUndo:    s.store.CanUndo(),
		CanRedo:    s.store.CanRedo(),
		Mode:       s.renderer.Mode().String(),
		Organizing: s.organize != nil,
		Dirty:      s.dirty,
	}
	for _, n := range s.store.SelectedNodes() {
		st.SelectedNodes = append(st.SelectedNodes, n.ID)
	}
	for _, e := range s.store.SelectedEdges() {
		st.SelectedEdges = append(st.SelectedEdges, e.ID)
	}
	return st
}

// Stats returns the renderer counters.
func (s *Session) Stats() scene.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.Stats()
}

// Camera returns the renderer camera, for mapping canvas points to pixels.
func (s *Session) Camera() scene.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.Camera()
}

// Path returns the file the session saves to.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports whether the diagram changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Close stops organizing, disposes the renderer and detaches from the
// host. It is idempotent. Unsaved changes are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelOrganize()
	if s.unsub != nil {
		s.unsub()
	}
	s.renderer.Dispose()
	s.host.OnDetach()
	if s.dirty {
		s.logger.Warn("closed with unsaved changes", "path", s.path)
	}
}
