package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nodecanvas/pkg/codec"
)

// Import decodes opts.Source. Mermaid sources without positions are laid
// out with the force layout so every node lands inside the canvas.
func Import(ctx context.Context, opts Options) (codec.Result, error) {
	res, err := codec.Import(ctx, opts.SourceFormat, opts.Source, codec.ImportOptions{
		Strict:       opts.Strict,
		AutoOrganize: true,
		Seed:         opts.Seed,
		Logger:       opts.Logger,
	})
	if err != nil {
		return codec.Result{}, fmt.Errorf("import %s: %w", opts.SourceFormat, err)
	}
	for _, w := range res.Warnings {
		opts.Logger.Warn("import warning", "format", opts.SourceFormat, "warning", w)
	}
	return res, nil
}
