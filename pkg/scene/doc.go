// Package scene renders a diagram as a live 2D/3D scene.
//
// A [Renderer] keeps one scene object per node and per edge, runs a frame
// loop driven by the host's frame callback, animates objects, and answers
// pointer hit tests. It never mutates the diagram; callers hand it
// snapshots through [Renderer.RenderGraph].
//
// # Host contract
//
// The host supplies a [Surface]: a sized drawing area that hands out a
// [Context] and schedules frame callbacks, one per display refresh. The
// Context owns GPU-side resources (geometry and materials) identified by
// [ResourceID]. Package raster provides a software implementation used by
// the CLI and by tests.
//
// # Resource ownership
//
// Scene objects live in an arena addressed by generational [Key]s. Every
// geometry and material the renderer creates is owned by exactly one arena
// object and is released when that object is removed: on every rebuild and
// on [Renderer.Dispose]. A Context that still reports live resources after
// Dispose indicates a leak.
//
// # Coordinates
//
// Canvas coordinates (y down, origin top-left of an 800x600 canvas) map to
// scene coordinates as (x-400, 300-y, z). The 2D camera looks down the -Z
// axis; the 3D camera sits off-axis. Both look at the origin.
package scene
