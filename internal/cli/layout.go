package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/pipeline"
)

// layoutCommand creates the layout command, which rearranges a canvas in
// place.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		algorithm  string
		resolve    bool
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Arrange the nodes of a canvas",
		Long: `Arrange the nodes of a canvas and write it back.

Algorithms:
  organize  force-directed layout (default)
  grid      row-major grid
  none      keep positions; combine with --resolve to only remove overlaps

The file is rewritten in its own format unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			opts.Layout = algorithm
			opts.Resolve = resolve
			if iterations > 0 {
				opts.Iterations = iterations
			}
			return c.runLayout(cmd.Context(), args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", pipeline.LayoutOrganize, "layout algorithm: organize, grid, none")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "push overlapping nodes apart afterwards")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "force layout iterations (default: from config)")

	return cmd
}

// runLayout loads the canvas, applies the layout and writes the result.
func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options) error {
	if err := pipeline.ValidateLayout(opts.Layout); err != nil {
		return err
	}
	f, err := codec.FormatFromPath(input)
	if err != nil {
		return err
	}
	if output == "" {
		output = input
	}
	of, err := codec.FormatFromPath(output)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	res, err := codec.Import(ctx, f, src, codec.ImportOptions{AutoOrganize: true, Logger: c.Logger})
	if err != nil {
		return fmt.Errorf("import %s: %w", input, err)
	}

	start := time.Now()
	d := pipeline.GenerateLayout(res.Data, opts)
	elapsed := time.Since(start)

	b, err := codec.Export(ctx, of, d, codec.ExportOptions{IncludeMetadata: true})
	if err != nil {
		return fmt.Errorf("export %s: %w", output, err)
	}
	if err := os.WriteFile(output, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	cfg := layout.DefaultConfig()
	cfg.Width, cfg.Height = opts.Width, opts.Height

	printSuccess("Layout complete (%s)", elapsed.Round(time.Millisecond))
	printFile(output)
	printStats(len(d.Nodes), len(d.Edges), false)
	if n := len(layout.CheckCollisions(d, cfg)); n > 0 {
		printWarning("%d overlapping node pairs remain", n)
		printNextStep("Resolve", appName+" layout "+output+" -a none --resolve")
	}
	return nil
}
