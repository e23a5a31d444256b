// Package raster is a software implementation of the scene host contract.
//
// [Context] rasterizes frames with github.com/fogleman/gg: boxes and planes
// as shaded faces sorted back to front, edges as lines and arrowhead cones.
// It tracks every live geometry and material, so tests and the CLI can
// verify that a renderer released what it allocated.
//
// [Offscreen] is a [scene.Surface] without a display. Frame callbacks run
// when the owner pumps them, either one refresh at a time with
// [Offscreen.Pump] or on a ticker with [Offscreen.Run].
package raster
