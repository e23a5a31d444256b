package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

// maxRenderFrames bounds the frames pumped while waiting for a layout.
const maxRenderFrames = 10000

type renderFlags struct {
	output    string
	mode      string
	width     int
	height    int
	organize  bool
	framesDir string
	save      bool
}

// renderCommand creates the render command, which drives a headless editing
// session and snapshots its scene.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a canvas scene to PNG",
		Long: `Render a canvas through the interactive scene renderer and save a PNG.

Unlike 'convert -f png', render opens a full editing session on an offscreen
surface. With --organize the force layout runs frame by frame as it would in
an editor; --frames writes every frame so the animation can be inspected, and
--save writes the final positions back to the canvas.`,
		Example: `  nodecanvas render board.canvas --mode 3d
  nodecanvas render board.canvas --organize --frames frames/ --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.png)")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "camera mode: 2d, 3d (default: from config)")
	cmd.Flags().IntVar(&flags.width, "width", 0, "surface width in pixels (default: from config)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "surface height in pixels (default: from config)")
	cmd.Flags().BoolVar(&flags.organize, "organize", false, "run the force layout before the snapshot")
	cmd.Flags().StringVar(&flags.framesDir, "frames", "", "directory receiving one PNG per frame")
	cmd.Flags().BoolVar(&flags.save, "save", false, "write the final positions back to the canvas")

	return cmd
}

// runRender opens a session on input, optionally animates the layout and
// writes the last frame.
func (c *CLI) runRender(ctx context.Context, input string, flags renderFlags) error {
	cfg := *c.Config
	if flags.mode != "" {
		cfg.Render.Mode = flags.mode
	}
	if _, err := scene.ParseMode(cfg.Render.Mode); err != nil {
		return err
	}
	w, h := cfg.Render.Width, cfg.Render.Height
	if flags.width > 0 {
		w = flags.width
	}
	if flags.height > 0 {
		h = flags.height
	}

	vault, err := host.NewDirVault(filepath.Dir(input))
	if err != nil {
		return err
	}
	hh := host.NewHeadless(vault, w, h)

	s, err := session.Open(ctx, hh, filepath.Base(input), session.OptionsFromConfig(&cfg, c.Logger)...)
	if err != nil {
		return err
	}
	defer s.Close()

	if flags.framesDir != "" {
		if err := os.MkdirAll(flags.framesDir, 0o755); err != nil {
			return fmt.Errorf("create frames dir: %w", err)
		}
	}

	fps := cfg.Render.FPS
	now := time.Now()
	frame := 0
	pump := func() error {
		now = now.Add(time.Second / time.Duration(fps))
		s.Pump(now)
		frame++
		if flags.framesDir == "" {
			return nil
		}
		return writePNG(filepath.Join(flags.framesDir, fmt.Sprintf("frame-%05d.png", frame)), hh)
	}

	// The first pump draws the loaded canvas.
	if err := pump(); err != nil {
		return err
	}

	if flags.organize {
		if _, err := s.Apply(ctx, session.Command{Op: session.CmdOrganize}); err != nil {
			return err
		}
		p := newProgress(loggerFromContext(ctx))
		start := frame
		spinner := newSpinnerWithContext(ctx, "Organizing...")
		spinner.Start()
		for organizing, _ := s.Organizing(); organizing; organizing, _ = s.Organizing() {
			if err := ctx.Err(); err != nil {
				spinner.StopWithError("Layout interrupted")
				return err
			}
			if frame >= maxRenderFrames {
				spinner.StopWithError("Layout interrupted")
				return fmt.Errorf("layout did not finish after %d frames", frame)
			}
			if err := pump(); err != nil {
				spinner.StopWithError("Frame write failed")
				return err
			}
		}
		spinner.Stop()
		p.done(fmt.Sprintf("Organized in %d frames", frame-start))
		// Draw the committed positions.
		if err := pump(); err != nil {
			return err
		}
	}

	output := flags.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
	}
	if err := writePNG(output, hh); err != nil {
		return err
	}

	if flags.save && s.Dirty() {
		if err := s.Save(ctx); err != nil {
			return fmt.Errorf("save %s: %w", input, err)
		}
	}

	st := s.Stats()
	printSuccess("Rendered %s scene", st.Mode)
	printFile(output)
	if flags.framesDir != "" {
		printDetail("%d frames in %s", frame, flags.framesDir)
	}
	state := s.State()
	printStats(len(state.Data.Nodes), len(state.Data.Edges), false)
	return nil
}

func writePNG(path string, h *host.Headless) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := h.Offscreen().EncodePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
