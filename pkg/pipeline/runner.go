package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/cache"
	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the watcher all use it to avoid duplicating
// caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The cache is wrapped with cache.Instrument so hits and misses reach the
// cache hooks.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.Instrument(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete import → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Import
	importStart := time.Now()
	imported, importHit, err := r.ImportWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Warnings = imported.Warnings
	result.Stats.ImportTime = time.Since(importStart)
	result.CacheInfo.ImportHit = importHit

	r.Logger.Info("imported diagram",
		"format", opts.SourceFormat,
		"nodes", len(imported.Data.Nodes),
		"edges", len(imported.Data.Edges),
		"duration", result.Stats.ImportTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	d, layoutHit, err := r.LayoutWithCacheInfo(ctx, imported.Data, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Data = d
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(d.Nodes)
	result.Stats.EdgeCount = len(d.Edges)
	result.CacheInfo.LayoutHit = layoutHit
	if opts.NeedsLayout() {
		r.Logger.Info("computed layout",
			"layout", opts.Layout,
			"resolve", opts.Resolve,
			"duration", result.Stats.LayoutTime)
	}

	result.DocHash, err = DocHash(d)
	if err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ImportWithCacheInfo decodes the source with caching and returns cache hit info.
func (r *Runner) ImportWithCacheInfo(ctx context.Context, opts Options) (codec.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForImport(); err != nil {
		return codec.Result{}, false, err
	}

	cacheKey := r.Keyer.ImportKey(string(opts.SourceFormat), cache.Hash(opts.Source), opts.ImportKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached codec.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
		}
	}

	res, err := Import(ctx, opts)
	if err != nil {
		return codec.Result{}, false, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLImport); err != nil {
			r.Logger.Debug("cache set failed", "stage", "import", "error", err)
		}
	}
	return res, false, nil
}

// LayoutWithCacheInfo lays out d with caching and returns cache hit info.
// When opts selects no layout, d is returned unchanged.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, d graph.Data, opts Options) (graph.Data, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Data{}, false, err
	}
	if !opts.NeedsLayout() {
		return d, false, nil
	}

	docHash, err := DocHash(d)
	if err != nil {
		return graph.Data{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(docHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached graph.Data
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	out := GenerateLayout(d, opts)

	if data, err := json.Marshal(out); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Debug("cache set failed", "stage", "layout", "error", err)
		}
	}
	return out, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d graph.Data, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	docHash, err := DocHash(d)
	if err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(ctx, d, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("cache set failed", "stage", "render", "format", format, "error", err)
		}
	}
	return rendered, false, nil
}

// DocHash returns the content hash of d's canonical JSON encoding.
func DocHash(d graph.Data) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
