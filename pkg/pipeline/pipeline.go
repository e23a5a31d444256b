// Package pipeline provides the batch conversion pipeline for nodecanvas.
//
// The pipeline is what the CLI, the HTTP server and the file watcher share:
// it decodes a diagram, optionally lays it out, and encodes it to one or
// more output formats. Keeping it in one place keeps those entry points
// consistent.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Import: Decode source bytes (JSON, Mermaid or XML) into a diagram
//  2. Layout: Organize, grid-arrange or de-overlap node positions
//  3. Render: Encode the diagram (SVG, OBJ, Mermaid, XML, DOT, JSON, PNG)
//
// Each stage caches its result through the Runner's cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:       src,
//	    SourceFormat: codec.FormatMermaid,
//	    Layout:       pipeline.LayoutOrganize,
//	    Formats:      []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/cache"
	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Server, and Watcher
// =============================================================================

const (
	// DefaultWidth is the default canvas width used by layouts.
	DefaultWidth = graph.CanvasWidth

	// DefaultHeight is the default canvas height used by layouts.
	DefaultHeight = graph.CanvasHeight

	// DefaultPixelWidth and DefaultPixelHeight size PNG snapshots.
	DefaultPixelWidth  = 1600
	DefaultPixelHeight = 1200

	// DefaultMode is the camera mode of PNG snapshots.
	DefaultMode = "2d"
)

// Layout algorithms.
const (
	LayoutNone     = "none"
	LayoutOrganize = "organize"
	LayoutGrid     = "grid"
)

// FormatPNG is the raster snapshot output. Every other output format is a
// codec format.
const FormatPNG = "png"

// ValidLayouts is the set of supported layout algorithms.
var ValidLayouts = map[string]bool{
	LayoutNone:     true,
	LayoutOrganize: true,
	LayoutGrid:     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Import options
	Source       []byte       `json:"-"`
	SourceFormat codec.Format `json:"source_format"`
	Strict       bool         `json:"strict,omitempty"`
	Seed         uint64       `json:"seed,omitempty"`
	Refresh      bool         `json:"refresh,omitempty"`

	// Layout options
	Layout     string  `json:"layout,omitempty"`
	Resolve    bool    `json:"resolve,omitempty"` // Push overlapping nodes apart after layout
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Iterations int     `json:"iterations,omitempty"`

	// Render options
	Formats         []string `json:"formats,omitempty"`
	IncludeMetadata bool     `json:"include_metadata,omitempty"`
	Transparent     bool     `json:"transparent,omitempty"`
	Background      string   `json:"background,omitempty"`
	Padding         float64  `json:"padding,omitempty"`
	Mode            string   `json:"mode,omitempty"` // PNG camera mode
	PixelWidth      int      `json:"pixel_width,omitempty"`
	PixelHeight     int      `json:"pixel_height,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Data is the imported (and laid out) diagram.
	Data graph.Data

	// DocHash is the content hash of Data.
	DocHash string

	// Warnings are the lenient-mode import warnings.
	Warnings []string

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	ImportTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ImportHit bool // Whether the decoded diagram came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if format == FormatPNG {
		return nil
	}
	if _, err := codec.ParseFormat(format); err != nil {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLayout checks that a layout algorithm is valid.
func ValidateLayout(layout string) error {
	if !ValidLayouts[layout] {
		return fmt.Errorf("invalid layout: %q (must be one of: none, organize, grid)", layout)
	}
	return nil
}

// ValidateSourceFormat checks that a format can be imported.
func ValidateSourceFormat(f codec.Format) error {
	if !codec.CanImport(f) {
		return fmt.Errorf("invalid source format: %q (must be one of: json, mermaid, xml)", f)
	}
	return nil
}

func formatList() string {
	names := []string{}
	for _, f := range codec.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(append(names, FormatPNG), ", ")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForImport(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForImport checks required fields for importing.
func (o *Options) ValidateForImport() error {
	if len(o.Source) == 0 {
		return fmt.Errorf("source is required")
	}
	if o.SourceFormat == "" {
		o.SourceFormat = codec.FormatJSON
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateSourceFormat(o.SourceFormat)
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Layout == "" {
		o.Layout = LayoutNone
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return ValidateLayout(o.Layout)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{string(codec.FormatSVG)}
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.PixelWidth == 0 {
		o.PixelWidth = DefaultPixelWidth
	}
	if o.PixelHeight == 0 {
		o.PixelHeight = DefaultPixelHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, err := scene.ParseMode(o.Mode); err != nil {
		return err
	}
	if o.PixelWidth < 0 || o.PixelHeight < 0 {
		return fmt.Errorf("invalid pixel size %dx%d", o.PixelWidth, o.PixelHeight)
	}
	return nil
}

// NeedsLayout reports whether the layout stage changes the diagram.
func (o *Options) NeedsLayout() bool {
	return (o.Layout != "" && o.Layout != LayoutNone) || o.Resolve
}

// ImportKeyOpts returns cache key options for importing.
func (o *Options) ImportKeyOpts() cache.ImportKeyOpts {
	return cache.ImportKeyOpts{
		Strict:       o.Strict,
		AutoOrganize: true,
		Seed:         o.Seed,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:  o.Layout,
		Width:      o.Width,
		Height:     o.Height,
		Iterations: o.Iterations,
		Resolve:    o.Resolve,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:          format,
		IncludeMetadata: o.IncludeMetadata,
		Transparent:     o.Transparent,
		Background:      o.Background,
		Padding:         o.Padding,
	}
	if format == FormatPNG {
		k.Mode, k.Width, k.Height = o.Mode, o.PixelWidth, o.PixelHeight
	}
	return k
}

// ExportOptions returns the codec options for encoding.
func (o *Options) ExportOptions() codec.ExportOptions {
	return codec.ExportOptions{
		IncludeMetadata: o.IncludeMetadata,
		Transparent:     o.Transparent,
		Background:      o.Background,
		Padding:         o.Padding,
	}
}
