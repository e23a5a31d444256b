package codec

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

// Format is a codec tag.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatSVG      Format = "svg"
	FormatOBJ      Format = "obj"
	FormatMermaid  Format = "mermaid"
	FormatXML      Format = "xml"
	FormatDOT      Format = "dot"
	FormatGraphviz Format = "graphviz"
)

// decodeFunc parses a payload. positioned reports whether the format
// carried node geometry.
type decodeFunc func(b []byte, opts ImportOptions, w *warnings) (d graph.Data, positioned bool, err error)

type encodeFunc func(d graph.Data, opts ExportOptions) ([]byte, error)

type codec struct {
	exts        []string
	contentType string
	encode      encodeFunc
	decode      decodeFunc
}

var registry = map[Format]codec{
	FormatJSON:     {[]string{".json", ".canvas"}, "application/json", encodeJSON, decodeJSON},
	FormatSVG:      {[]string{".svg"}, "image/svg+xml", encodeSVG, nil},
	FormatOBJ:      {[]string{".obj"}, "model/obj", encodeOBJ, nil},
	FormatMermaid:  {[]string{".mmd", ".mermaid"}, "text/vnd.mermaid", encodeMermaid, decodeMermaid},
	FormatXML:      {[]string{".xml"}, "application/xml", encodeXML, decodeXML},
	FormatDOT:      {[]string{".dot", ".gv"}, "text/vnd.graphviz", encodeDOT, nil},
	FormatGraphviz: {nil, "image/svg+xml", encodeGraphviz, nil},
}

// Formats returns every registered format, sorted.
func Formats() []Format {
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// ImportFormats returns the formats that can be imported, sorted.
func ImportFormats() []Format {
	var out []Format
	for _, f := range Formats() {
		if registry[f].decode != nil {
			out = append(out, f)
		}
	}
	return out
}

// ParseFormat validates a format tag. Tags are case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[f]; !ok {
		return "", errs.New(errs.ErrCodeUnsupportedFormat, "unknown format %q", s)
	}
	return f, nil
}

// FormatFromPath returns the format for a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats() {
		if slices.Contains(registry[f].exts, ext) {
			return f, nil
		}
	}
	return "", errs.New(errs.ErrCodeUnsupportedFormat, "no format for extension %q", ext)
}

// Extension returns the preferred file extension for f, including the dot.
func Extension(f Format) string {
	if c, ok := registry[f]; ok && len(c.exts) > 0 {
		return c.exts[0]
	}
	if f == FormatGraphviz {
		return ".graphviz.svg"
	}
	return "." + string(f)
}

// ContentType returns the MIME type for f.
func ContentType(f Format) string {
	if c, ok := registry[f]; ok {
		return c.contentType
	}
	return "application/octet-stream"
}

// CanImport reports whether f has a reader.
func CanImport(f Format) bool {
	return registry[f].decode != nil
}

// Export encodes d as f.
func Export(ctx context.Context, f Format, d graph.Data, opts ExportOptions) ([]byte, error) {
	start := time.Now()
	c, ok := registry[f]
	if !ok || c.encode == nil {
		err := errs.UnsupportedFormat("export", string(f))
		observability.Codec().OnExport(ctx, string(f), 0, time.Since(start), err)
		return nil, err
	}
	out, err := c.encode(d, opts.withDefaults())
	observability.Codec().OnExport(ctx, string(f), len(out), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Import decodes b as f and validates the result.
func Import(ctx context.Context, f Format, b []byte, opts ImportOptions) (Result, error) {
	start := time.Now()
	res, err := importData(f, b, opts)
	observability.Codec().OnImport(ctx, string(f), len(res.Data.Nodes), len(res.Warnings), time.Since(start), err)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func importData(f Format, b []byte, opts ImportOptions) (Result, error) {
	c, ok := registry[f]
	if !ok || c.decode == nil {
		return Result{}, errs.UnsupportedFormat("import", string(f))
	}
	w := &warnings{logger: opts.logger()}
	d, positioned, err := c.decode(b, opts, w)
	if err != nil {
		return Result{}, err
	}
	if err := normalize(&d, opts, w); err != nil {
		return Result{}, err
	}
	if opts.AutoOrganize && !positioned {
		d = layout.Grid(d, layout.DefaultConfig())
	}
	return Result{Format: f, Data: d, Warnings: w.list}, nil
}
