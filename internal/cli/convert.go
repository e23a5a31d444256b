package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/codec"
	"github.com/matzehuels/nodecanvas/pkg/pipeline"
)

// convertFlags holds the flags shared by convert and watch.
type convertFlags struct {
	from    string
	formats string
	output  string
	noCache bool
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var flags convertFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a canvas to other formats",
		Long: `Convert a canvas document to one or more output formats.

The input format is taken from the file extension unless --from is given.
Mermaid and XML sources without positions are placed on a grid first; use
--layout organize to run the force layout instead.

Output formats: json, svg, obj, mermaid, xml, dot, graphviz, png.
Results are cached, so converting an unchanged file again is instant.`,
		Example: `  nodecanvas convert board.canvas -f svg,png
  nodecanvas convert flow.mmd -f json --layout organize -o out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			mergeConvertOptions(&base, opts)
			return c.runConvert(cmd.Context(), args[0], flags, base)
		},
	}

	c.bindConvertFlags(cmd, &flags, &opts)
	return cmd
}

// bindConvertFlags registers convert flags on cmd. Values left at their zero
// value fall back to the configuration.
func (c *CLI) bindConvertFlags(cmd *cobra.Command, flags *convertFlags, opts *pipeline.Options) {
	cmd.Flags().StringVar(&flags.from, "from", "", "input format (default: from extension)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "comma-separated output formats (default: svg)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default: next to input)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVarP(&opts.Layout, "layout", "l", "", "layout before rendering: none, organize, grid")
	cmd.Flags().BoolVar(&opts.Resolve, "resolve", false, "push overlapping nodes apart")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on dangling or duplicate edges")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for placeholder positions")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.IncludeMetadata, "metadata", false, "add a document metadata block (json)")
	cmd.Flags().BoolVar(&opts.Transparent, "transparent", false, "omit the background")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "camera mode for png: 2d, 3d")
	cmd.Flags().IntVar(&opts.PixelWidth, "px-width", 0, "png width in pixels")
	cmd.Flags().IntVar(&opts.PixelHeight, "px-height", 0, "png height in pixels")
}

// mergeConvertOptions copies flag values that were set over base.
func mergeConvertOptions(base *pipeline.Options, flags pipeline.Options) {
	if flags.Layout != "" {
		base.Layout = flags.Layout
	}
	if flags.Mode != "" {
		base.Mode = flags.Mode
	}
	if flags.PixelWidth > 0 {
		base.PixelWidth = flags.PixelWidth
	}
	if flags.PixelHeight > 0 {
		base.PixelHeight = flags.PixelHeight
	}
	base.Resolve = flags.Resolve
	base.Strict = flags.Strict
	base.Seed = flags.Seed
	base.Refresh = flags.Refresh
	base.IncludeMetadata = flags.IncludeMetadata
	base.Transparent = flags.Transparent
}

// runConvert reads input, runs the pipeline and writes one file per format.
func (c *CLI) runConvert(ctx context.Context, input string, flags convertFlags, opts pipeline.Options) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	from := flags.from
	if from == "" {
		f, err := codec.FormatFromPath(input)
		if err != nil {
			return err
		}
		from = string(f)
	}
	sf, err := codec.ParseFormat(from)
	if err != nil {
		return err
	}

	opts.Source = src
	opts.SourceFormat = sf
	opts.Formats = parseFormats(flags.formats)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", filepath.Base(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if flags.output != "" {
		if err := os.MkdirAll(flags.output, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	paths, err := writeArtifacts(input, flags.output, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Converted %s", input)
	for _, p := range paths {
		printFile(p)
	}
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each artifact and returns the written paths in
// format order.
func writeArtifacts(input, dir string, artifacts map[string][]byte) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := outputPath(input, dir, f)
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
