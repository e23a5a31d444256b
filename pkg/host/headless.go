package host

import (
	"context"
	"sync"

	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/scene/raster"
)

// Headless is an Adapter without a window: it draws into an offscreen
// raster surface and stores files in a Vault. The CLI and the HTTP server
// use it; tests drive its frames with Offscreen().Pump.
type Headless struct {
	mu       sync.Mutex
	surface  *raster.Offscreen
	vault    Vault
	attached bool
	detached bool
}

// NewHeadless returns an adapter with a width×height offscreen surface.
func NewHeadless(vault Vault, width, height int) *Headless {
	return &Headless{surface: raster.NewOffscreen(width, height), vault: vault}
}

// OnAttach implements Adapter. A detached adapter cannot be reattached.
func (h *Headless) OnAttach(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detached {
		return ErrDetached
	}
	h.attached = true
	return nil
}

// OnDetach implements Adapter.
func (h *Headless) OnDetach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached = false
	h.detached = true
}

// Attached reports whether the view is open.
func (h *Headless) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached
}

// Surface implements Adapter.
func (h *Headless) Surface() scene.Surface { return h.surface }

// Offscreen returns the concrete surface for frame pumping and snapshots.
func (h *Headless) Offscreen() *raster.Offscreen { return h.surface }

// Vault implements Adapter.
func (h *Headless) Vault() Vault { return h.vault }

var _ Adapter = (*Headless)(nil)
