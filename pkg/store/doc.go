// Package store owns the canonical diagram and its editing history.
//
// A [Store] holds the live [graph.Data], an undo and a redo stack of whole
// diagram snapshots, and the transient selection. Every mutator first pushes
// the pre-mutation snapshot onto the undo stack (capped at
// [DefaultMaxUndoLevels] entries, oldest discarded) and clears the redo stack.
//
// # Best-effort editing
//
// Mutators that target an id ([Store.RemoveNode], [Store.UpdateNode], ...)
// report a missing target as false and leave state and history untouched.
// Editing commands routinely race with deletions in the UI, so a stale id is
// not an error. Malformed input to [Store.AddNode], [Store.AddEdge] and
// [Store.SetGraphData] is rejected with a *errors.ValidationError, again
// without touching state.
//
// # Change events
//
// [Store.Subscribe] registers a [Listener] that receives an [Event] after
// every committed change, including undo/redo, viewport and selection
// changes. The scene renderer and the websocket fan-out resync from these.
//
// # Concurrency
//
// A Store assumes a single writer: one editing session drives it. It is not
// safe for concurrent use; callers that share a Store across goroutines
// (such as the HTTP server) serialize access themselves.
package store
