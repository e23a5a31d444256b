package store

import (
	"math"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// maxFitZoom caps the zoom chosen by FitToView.
const maxFitZoom = 2.0

// SetViewport sets the viewport translation and zoom. Zoom is clamped to
// [graph.MinZoom, graph.MaxZoom]; x and y are unclamped. Viewport changes
// are not recorded in the undo history.
func (s *Store) SetViewport(x, y, zoom float64) {
	s.data.Viewport.X = x
	s.data.Viewport.Y = y
	s.data.Viewport.Zoom = graph.ClampZoom(zoom)
	s.emit(OpViewport)
}

// CenterView translates the viewport so the node bounds are centered in
// the logical canvas at the current zoom.
func (s *Store) CenterView() {
	s.centerAt(s.data.Viewport.Zoom)
}

// FitToView centers the node bounds and picks the largest zoom at which
// they fit the logical canvas, capped at 2.
func (s *Store) FitToView() {
	b := s.data.Bounds()
	zoom := maxFitZoom
	if w := b.Width(); w > 0 {
		zoom = math.Min(zoom, s.canvasW/w)
	}
	if h := b.Height(); h > 0 {
		zoom = math.Min(zoom, s.canvasH/h)
	}
	s.centerAt(graph.ClampZoom(zoom))
}

// centerAt maps the bounds center to the canvas center. A canvas point p
// is displayed at p*zoom + (x, y).
func (s *Store) centerAt(zoom float64) {
	cx, cy := s.data.Bounds().Center()
	zoom = graph.ClampZoom(zoom)
	s.SetViewport(s.canvasW/2-cx*zoom, s.canvasH/2-cy*zoom, zoom)
}
