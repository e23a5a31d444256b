// Package codec translates diagrams to and from file formats.
//
// # Formats
//
//	json      export + import, schema-validated
//	svg       export only
//	obj       export only (3D mesh, one box per node)
//	mermaid   export + best-effort import
//	xml       export + strict import
//	dot       export only (Graphviz DOT source)
//	graphviz  export only (SVG laid out by Graphviz)
//
// [Export] and [Import] dispatch on a [Format] tag. An unknown tag, or an
// import from an export-only format, yields an UNSUPPORTED_FORMAT error.
// [FormatFromPath] picks a format from a file extension.
//
// # Import validation
//
// Every import runs the same checks before returning: node ids unique and
// well formed, positive sizes, edge ids unique and both endpoints declared.
// Violations are returned as *errors.ValidationError naming the section,
// index and id. With [ImportOptions.Strict] unset, edge problems are
// downgraded: the offending edge is dropped and a warning recorded in
// [Result.Warnings]. Node problems are always fatal.
//
// Import never touches a store. Callers apply [Result.Data] with
// store.SetGraphData, which validates again and swaps atomically, so a
// failed import leaves the editing state unchanged.
//
// # Mermaid
//
// The Mermaid reader is line oriented, not a grammar: each line is matched
// independently against node, edge and style patterns and anything else is
// ignored. Nodes receive random placeholder positions (or grid positions
// with [ImportOptions.AutoOrganize]) since Mermaid carries no geometry.
package codec
