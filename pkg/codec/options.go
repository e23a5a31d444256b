package codec

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// DefaultPadding is the margin around exported drawings, in pixels.
const DefaultPadding = 40

// ExportOptions controls encoders. Fields a format does not use are
// ignored.
type ExportOptions struct {
	// IncludeMetadata adds a document metadata block with format, version,
	// counts and bounds (json). Node metadata is always written.
	IncludeMetadata bool

	// Transparent omits the background rectangle (svg).
	Transparent bool

	// Background is the background fill (svg). Defaults to white.
	Background string

	// Padding is the margin around the drawing (svg). Defaults to
	// DefaultPadding.
	Padding float64
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.Background == "" {
		o.Background = "#ffffff"
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	return o
}

// ImportOptions controls decoders.
type ImportOptions struct {
	// Strict makes edge problems (dangling endpoints, duplicate ids) fatal
	// instead of dropping the edge with a warning.
	Strict bool

	// AutoOrganize places nodes on the layout grid when the format carries
	// no positions (mermaid).
	AutoOrganize bool

	// Seed seeds placeholder positions. Zero picks a random seed.
	Seed uint64

	// Logger receives warnings. Defaults to log.Default().
	Logger *log.Logger
}

func (o ImportOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// Result is a decoded diagram.
type Result struct {
	Format   Format
	Data     graph.Data
	Warnings []string
}

type warnings struct {
	logger *log.Logger
	list   []string
}

func (w *warnings) add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.logger.Warn("import", "warning", msg)
	w.list = append(w.list, msg)
}
