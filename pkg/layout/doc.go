// Package layout arranges diagram nodes.
//
// All functions are pure with respect to their input: they operate on a
// clone of the given [graph.Data] and return the arranged copy. The store
// package snapshots its history before applying a result.
//
// # Force-directed layout
//
// [AutoOrganize] runs a Fruchterman–Reingold simulation. With k =
// sqrt(area / n), every node pair repels with k²/d and every edge attracts
// its endpoints with d²/k. Each iteration moves a node by at most the
// current temperature, which cools linearly from [Config.Cooling] to zero,
// and clamps it into the canvas shrunk by [Config.Margin].
//
// A [Simulation] exposes the same physics in steps so callers can spread
// the O(n²) iterations across frames:
//
//	sim := layout.NewSimulation(data, layout.DefaultConfig())
//	for !sim.Step(10) {
//	    // yield to the frame loop
//	}
//	arranged := sim.Result()
//
// # Collisions
//
// [CheckCollisions] reports node pairs whose centers are closer than
// (w1+w2)/2 + 2·padding horizontally and (h1+h2)/2 + 2·padding vertically.
// [ResolveOverlaps] pushes colliding pairs apart along their connecting
// vector and never increases the number of colliding pairs.
//
// # Grid
//
// [Grid] places nodes on a uniform grid of ceil(sqrt(n)) columns. Importers
// use it for formats that carry no positions.
package layout
