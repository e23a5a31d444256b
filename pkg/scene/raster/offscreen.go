package raster

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/nodecanvas/pkg/scene"
)

// Offscreen is a display-less scene.Surface. It is safe for concurrent
// use, but frame callbacks always run on the pumping goroutine.
type Offscreen struct {
	mu         sync.Mutex
	width      int
	height     int
	next       scene.FrameHandle
	pending    map[scene.FrameHandle]scene.FrameFunc
	ctx        *Context
	acquireErr error
}

// NewOffscreen returns a surface of the given pixel size.
func NewOffscreen(width, height int) *Offscreen {
	return &Offscreen{
		width:   width,
		height:  height,
		pending: make(map[scene.FrameHandle]scene.FrameFunc),
	}
}

// FailAcquire makes every following AcquireContext return err.
func (o *Offscreen) FailAcquire(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.acquireErr = err
}

// Size implements scene.Surface.
func (o *Offscreen) Size() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.width, o.height
}

// Resize changes the surface size. The owner is expected to forward the
// new size to the renderer.
func (o *Offscreen) Resize(width, height int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.width, o.height = width, height
}

// AcquireContext implements scene.Surface. Each call returns a new Context.
func (o *Offscreen) AcquireContext() (scene.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.acquireErr != nil {
		return nil, o.acquireErr
	}
	o.ctx = NewContext(o.width, o.height)
	return o.ctx, nil
}

// Context returns the most recently acquired context, or nil.
func (o *Offscreen) Context() *Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctx
}

// RequestFrame implements scene.Surface.
func (o *Offscreen) RequestFrame(fn scene.FrameFunc) scene.FrameHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.pending[o.next] = fn
	return o.next
}

// CancelFrame implements scene.Surface.
func (o *Offscreen) CancelFrame(h scene.FrameHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pending, h)
}

// Pending returns the number of scheduled callbacks.
func (o *Offscreen) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Pump runs one refresh: every callback scheduled before the call, in
// request order. Callbacks requested while pumping wait for the next Pump.
// It returns the number of callbacks run.
func (o *Offscreen) Pump(now time.Time) int {
	o.mu.Lock()
	handles := make([]scene.FrameHandle, 0, len(o.pending))
	for h := range o.pending {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	fns := make([]scene.FrameFunc, len(handles))
	for i, h := range handles {
		fns[i] = o.pending[h]
		delete(o.pending, h)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Run pumps frames at fps until ctx is done.
func (o *Offscreen) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return errors.New("fps must be positive")
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			o.Pump(now)
		}
	}
}

// EncodePNG writes the last drawn frame as PNG.
func (o *Offscreen) EncodePNG(w io.Writer) error {
	c := o.Context()
	if c == nil {
		return errors.New("no context acquired")
	}
	return c.EncodePNG(w)
}
