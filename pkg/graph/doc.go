// Package graph defines the canonical diagram data model for nodecanvas.
//
// A diagram is a [Data] value: a set of [Node]s, a set of [Edge]s between
// them and a [Viewport]. Data is the unit of undo/redo snapshots, import
// and export. The store package exclusively owns the live Data; every other
// package receives read-only snapshots produced by [Data.Clone].
//
// # Coordinates
//
// Canvas coordinates grow rightward (x) and downward (y). A node's
// [Node.Position] is its center; [Node.Size] is its full extent, so the node
// covers [x-w/2, x+w/2] × [y-h/2, y+h/2]. The optional z and depth are only
// consumed by the 3D scene and the OBJ exporter.
//
// # Invariants
//
// [Data.Validate] enforces the model invariants:
//
//   - node and edge ids are non-empty and unique within their collection
//   - node width and height are positive
//   - node opacity, when present, lies in [0, 1]
//   - edge endpoints reference nodes of the same Data
//   - viewport zoom lies in [MinZoom, MaxZoom]
//
// # Identity
//
// New ids come from an [IDGenerator]. [UUIDGenerator] is the default;
// [SequenceGenerator] yields deterministic ids for tests and fixtures.
//
// # Concurrency
//
// Data values are plain structs and are not safe for concurrent mutation.
// Clone before handing a value to another goroutine.
package graph
