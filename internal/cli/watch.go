package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/pipeline"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// watchCommand creates the watch command, which re-runs convert whenever
// the input changes.
func (c *CLI) watchCommand() *cobra.Command {
	var flags convertFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Convert a canvas every time it changes",
		Long: `Watch a canvas file and convert it whenever it is written.

Accepts the same flags as convert. Conversion errors are reported and the
watch continues; stop it with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			mergeConvertOptions(&base, opts)
			input := args[0]
			return watchFile(cmd.Context(), input, watchDebounce, func() error {
				return c.runConvert(cmd.Context(), input, flags, base)
			})
		},
	}

	c.bindConvertFlags(cmd, &flags, &opts)
	return cmd
}

// watchFile calls fn once, then again after every burst of writes to path.
// The parent directory is watched so that editors replacing the file by
// rename are followed. Errors from fn are logged, not returned. watchFile
// returns when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func() error) error {
	logger := loggerFromContext(ctx)
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	run := func() {
		if err := fn(); err != nil {
			logger.Error("convert failed", "file", path, "err", err)
		}
	}
	run()
	logger.Info("watching", "file", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("change", "file", path, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-timer.C:
			run()
		}
	}
}
