package scene

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

var (
	// ErrNotInitialized is returned by operations that need a drawing
	// context before [Renderer.Initialize] succeeded.
	ErrNotInitialized = errors.New("renderer not initialized")

	// ErrAlreadyInitialized is returned by a second [Renderer.Initialize].
	ErrAlreadyInitialized = errors.New("renderer already initialized")

	// ErrDisposed is returned by operations on a disposed renderer.
	ErrDisposed = errors.New("renderer disposed")
)

// Mode is the camera mode.
type Mode int

// Camera modes.
const (
	Mode2D Mode = iota
	Mode3D
)

func (m Mode) String() string {
	if m == Mode3D {
		return "3d"
	}
	return "2d"
}

// ParseMode parses "2d" or "3d".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "2d", "2D":
		return Mode2D, nil
	case "3d", "3D":
		return Mode3D, nil
	}
	return Mode2D, errs.New(errs.ErrCodeInvalidInput, "unknown mode %q (want 2d or 3d)", s)
}

// Hit is the result of a pointer hit test.
type Hit struct {
	ID       string     `json:"id"`
	Kind     ObjectKind `json:"kind"`
	Distance float64    `json:"distance"`
}

// Stats reports renderer counters.
type Stats struct {
	Frames  uint64  `json:"frames"`
	FPS     float64 `json:"fps"`
	Objects int     `json:"objects"`
	Mode    string  `json:"mode"`
	Running bool    `json:"running"`
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMode sets the initial camera mode.
func WithMode(m Mode) Option {
	return func(r *Renderer) { r.mode = m }
}

// WithBackground sets the clear color.
func WithBackground(c colorful.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// OnSelect registers the handler that [Renderer.Click] forwards hits to.
func OnSelect(fn func(Hit)) Option {
	return func(r *Renderer) { r.onSelect = fn }
}

// Renderer maintains the scene for one diagram on one surface.
//
// A Renderer is driven from the host's frame callbacks and is not safe for
// concurrent use.
type Renderer struct {
	logger     *log.Logger
	mode       Mode
	background colorful.Color
	onSelect   func(Hit)

	surface Surface
	ctx     Context
	width   int
	height  int
	camera  Camera
	light   Lighting

	arena    arena
	nodeKeys map[string]Key
	edgeKeys map[string]Key
	hovered  Key

	pending     FrameHandle
	start       time.Time
	lastFPS     time.Time
	framesSince int
	frames      uint64
	fps         float64

	disposed bool
}

// New creates a renderer. It does nothing until Initialize.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		logger:     log.Default(),
		background: colorful.Color{R: 0.97, G: 0.97, B: 0.98},
		nodeKeys:   make(map[string]Key),
		edgeKeys:   make(map[string]Key),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize acquires a drawing context from s, sets up lighting and the
// camera, and starts the frame loop. Context acquisition failure is
// returned as a RESOURCE_ACQUISITION error and is not retried.
func (r *Renderer) Initialize(s Surface) error {
	if r.disposed {
		return ErrDisposed
	}
	if r.ctx != nil {
		return ErrAlreadyInitialized
	}
	ctx, err := s.AcquireContext()
	if err != nil {
		return errs.ResourceAcquisition(err, "drawing context")
	}
	if ctx == nil {
		return errs.ResourceAcquisition(errors.New("surface returned no context"), "drawing context")
	}
	r.surface = s
	r.ctx = ctx
	r.width, r.height = s.Size()
	r.light = DefaultLighting()
	r.camera = cameraFor(r.mode, r.aspect())
	r.pending = s.RequestFrame(r.onFrame)
	r.logger.Debug("renderer initialized", "width", r.width, "height", r.height, "mode", r.mode)
	return nil
}

// Mode returns the current camera mode.
func (r *Renderer) Mode() Mode { return r.mode }

// SetMode switches the camera to m. Scene geometry is unaffected.
func (r *Renderer) SetMode(m Mode) {
	r.mode = m
	r.camera = cameraFor(m, r.aspect())
}

// ToggleMode flips between 2D and 3D and returns the new mode.
func (r *Renderer) ToggleMode() Mode {
	if r.mode == Mode2D {
		r.SetMode(Mode3D)
	} else {
		r.SetMode(Mode2D)
	}
	return r.mode
}

// Camera returns the active camera.
func (r *Renderer) Camera() Camera { return r.camera }

// Resize updates the viewport size after the host resized the surface.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	r.camera.Aspect = r.aspect()
}

func (r *Renderer) aspect() float64 {
	if r.width <= 0 || r.height <= 0 {
		return 1
	}
	return float64(r.width) / float64(r.height)
}

// Stats returns the current counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Frames:  r.frames,
		FPS:     r.fps,
		Objects: r.arena.count(),
		Mode:    r.mode.String(),
		Running: r.pending != 0,
	}
}

// Has reports whether the scene holds an object for the entity.
func (r *Renderer) Has(kind ObjectKind, id string) bool {
	_, ok := r.keyFor(kind, id)
	return ok
}

func (r *Renderer) keyFor(kind ObjectKind, id string) (Key, bool) {
	var k Key
	var ok bool
	if kind == ObjectEdge {
		k, ok = r.edgeKeys[id]
	} else {
		k, ok = r.nodeKeys[id]
	}
	if !ok {
		return Key{}, false
	}
	_, live := r.arena.get(k)
	return k, live
}

// RenderGraph rebuilds the scene from d. Resources of the previous scene
// are released first. On error the scene is left empty.
func (r *Renderer) RenderGraph(d graph.Data) error {
	switch {
	case r.disposed:
		return ErrDisposed
	case r.ctx == nil:
		return ErrNotInitialized
	}
	start := time.Now()
	saved := r.saveAnimations()
	r.clear()
	if err := r.build(d); err != nil {
		r.clear()
		return err
	}
	r.restoreAnimations(saved)
	observability.Render().OnSceneBuilt(r.arena.count(), time.Since(start))
	r.logger.Debug("scene built", "objects", r.arena.count(), "nodes", len(r.nodeKeys), "edges", len(r.edgeKeys))
	return nil
}

// clear removes every object and releases its resources. It returns the
// number of released resources.
func (r *Renderer) clear() int {
	released := 0
	for _, k := range r.arena.keys() {
		o, _ := r.arena.remove(k)
		released += r.releaseParts(o.parts)
	}
	clear(r.nodeKeys)
	clear(r.edgeKeys)
	r.hovered = Key{}
	return released
}

func (r *Renderer) releaseParts(parts []part) int {
	n := 0
	for _, p := range parts {
		if p.geometry != 0 {
			r.ctx.Release(p.geometry)
			n++
		}
		if p.material != 0 {
			r.ctx.Release(p.material)
			n++
		}
	}
	return n
}

// Dispose stops the frame loop, releases every scene resource and closes
// the drawing context. It is safe to call more than once and before
// Initialize.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.surface != nil && r.pending != 0 {
		r.surface.CancelFrame(r.pending)
	}
	r.pending = 0
	released := 0
	if r.ctx != nil {
		released = r.clear()
		if err := r.ctx.Close(); err != nil {
			r.logger.Warn("close drawing context", "error", err)
		}
		r.ctx = nil
	}
	observability.Render().OnDispose(released)
	r.logger.Debug("renderer disposed", "released", released)
}

// Disposed reports whether Dispose was called.
func (r *Renderer) Disposed() bool { return r.disposed }
