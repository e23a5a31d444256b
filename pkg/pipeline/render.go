package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/scene/raster"
)

// Render encodes d in every format of opts.Formats.
func Render(ctx context.Context, d graph.Data, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		if format == FormatPNG {
			data, err = RenderPNG(d, opts)
		} else {
			var f codec.Format
			if f, err = codec.ParseFormat(format); err == nil {
				data, err = codec.Export(ctx, f, d, opts.ExportOptions())
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderPNG draws one frame of d with the scene renderer on an offscreen
// surface and encodes it as PNG.
func RenderPNG(d graph.Data, opts Options) ([]byte, error) {
	mode, err := scene.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	w, h := opts.PixelWidth, opts.PixelHeight
	if w <= 0 || h <= 0 {
		w, h = DefaultPixelWidth, DefaultPixelHeight
	}

	rendererOpts := []scene.Option{scene.WithMode(mode)}
	if opts.Logger != nil {
		rendererOpts = append(rendererOpts, scene.WithLogger(opts.Logger))
	}
	if opts.Background != "" && !opts.Transparent {
		rendererOpts = append(rendererOpts, scene.WithBackground(scene.ParseColor(opts.Background, colorful.Color{R: 1, G: 1, B: 1})))
	}

	surface := raster.NewOffscreen(w, h)
	r := scene.New(rendererOpts...)
	if err := r.Initialize(surface); err != nil {
		return nil, err
	}
	defer r.Dispose()
	if err := r.RenderGraph(d); err != nil {
		return nil, err
	}
	surface.Pump(time.Now())

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
