package session

import (
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/nodecanvas/pkg/config"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

// OptionsFromConfig translates the canvas, layout and render sections of
// cfg into session options. An unknown render mode falls back to 2D.
func OptionsFromConfig(cfg *config.Config, logger *log.Logger) []Option {
	lc := LayoutConfig(cfg)
	mode, err := scene.ParseMode(cfg.Render.Mode)
	if err != nil {
		mode = scene.Mode2D
	}
	rendererOpts := []scene.Option{scene.WithMode(mode)}
	if cfg.Render.Background != "" {
		bg := scene.ParseColor(cfg.Render.Background, colorful.Color{R: 1, G: 1, B: 1})
		rendererOpts = append(rendererOpts, scene.WithBackground(bg))
	}
	return []Option{
		WithLogger(logger),
		WithLayoutConfig(lc),
		WithStepsPerFrame(cfg.Layout.StepsPerFrame),
		WithStoreOptions(
			store.WithMaxUndoLevels(cfg.Canvas.MaxUndo),
			store.WithCanvasSize(cfg.Canvas.Width, cfg.Canvas.Height),
		),
		WithRendererOptions(rendererOpts...),
	}
}

// LayoutConfig returns the layout configuration described by cfg. Unset
// fields keep the layout defaults.
func LayoutConfig(cfg *config.Config) layout.Config {
	lc := layout.DefaultConfig()
	if cfg.Canvas.Width > 0 {
		lc.Width = cfg.Canvas.Width
	}
	if cfg.Canvas.Height > 0 {
		lc.Height = cfg.Canvas.Height
	}
	if cfg.Layout.Iterations > 0 {
		lc.Iterations = cfg.Layout.Iterations
	}
	if cfg.Layout.Cooling > 0 {
		lc.Cooling = cfg.Layout.Cooling
	}
	if cfg.Layout.Margin > 0 {
		lc.Margin = cfg.Layout.Margin
	}
	if cfg.Layout.Padding > 0 {
		lc.Padding = cfg.Layout.Padding
	}
	return lc
}
