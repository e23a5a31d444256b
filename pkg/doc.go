// Package pkg provides the core libraries for nodecanvas, an editor model
// for node-and-edge canvases.
//
// # Overview
//
// A canvas is a set of positioned nodes (text, file, link, group and media
// cards) joined by edges. The pkg directory is organized into four areas:
//
//  1. Model - [graph] types, the [store] with undo history and selection
//  2. Geometry - [layout] algorithms and the [scene] renderer
//  3. Interchange - the [codec] formats and the [pipeline] that chains them
//  4. Hosting - [host] adapters and vaults, [session], [cache], [config]
//
// # Architecture
//
// An interactive editor wires the pieces like this:
//
//	host.Adapter (surface + vault)
//	         ↓
//	    [session] (open, edit, save)
//	      ↙       ↘
//	[store]      [scene]
//	(history)    (frame loop, picking)
//	      ↘       ↙
//	    [layout] (force, grid, overlaps)
//
// Batch conversion skips the session:
//
//	source bytes → [codec] import → [layout] → [codec] export / [scene] PNG
//
// # Quick Start
//
// Convert a Mermaid flowchart into an organized SVG:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/nodecanvas/pkg/codec"
//	    "github.com/matzehuels/nodecanvas/pkg/layout"
//	)
//
//	res, _ := codec.Import(ctx, codec.FormatMermaid, src, codec.ImportOptions{})
//	d := layout.AutoOrganize(res.Data, layout.DefaultConfig())
//	svg, _ := codec.Export(ctx, codec.FormatSVG, d, codec.ExportOptions{})
//
// # Main Packages
//
// [graph] - Serializable canvas types: Data, Node, Edge, Viewport, plus
// cloning, validation and id generation.
//
// [store] - The authoritative canvas state. Every mutation is validated,
// recorded in a bounded undo history and announced to listeners.
//
// [layout] - Fruchterman-Reingold force layout (also as a steppable
// Simulation), grid arrangement and overlap resolution.
//
// [scene] - Converts canvas data into 2D or 3D scene objects, owns their
// GPU resources and runs the frame loop. [scene/raster] is an offscreen
// surface backed by a software rasterizer.
//
// [codec] - Import and export: canvas JSON, Mermaid, XML, SVG, OBJ, DOT and
// Graphviz-rendered SVG.
//
// [pipeline] - import → layout → render with per-stage caching.
//
// [session] - One open canvas: ties a host, a store and a renderer together
// and maps UI commands onto them.
//
// [host] - Host adapters and vaults (directory, MongoDB, MinIO).
//
// [cache] - File, memory, Redis and null caches with content-hash keys.
//
// [config] - TOML configuration with environment overrides.
//
// [observability] - Hooks for layout and cache instrumentation.
//
// [errors] - Structured errors with codes and validation details.
package pkg
