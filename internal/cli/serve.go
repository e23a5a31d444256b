package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/internal/server"
	"github.com/matzehuels/nodecanvas/pkg/config"
	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

// serveCommand creates the serve command, which exposes conversion, canvas
// storage and live editing sessions over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		dir     string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		Long: `Serve the nodecanvas API.

Canvases are stored in the configured vault (a directory, MongoDB or an
S3-compatible bucket). Clients editing the same canvas over /ws/canvases/
share one session and receive each other's changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, dir, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config)")
	cmd.Flags().StringVar(&dir, "dir", "", "serve canvases from this directory, overriding the configured vault")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, dir string, noCache bool) error {
	cfg := *c.Config
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if dir != "" {
		cfg.Vault.Backend, cfg.Vault.Dir = config.VaultDir, dir
	}

	vault, closeVault, err := host.OpenVault(ctx, cfg.Vault)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	defer closeVault()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv, err := server.New(server.Options{
		Runner:         runner,
		Vault:          vault,
		Logger:         c.Logger,
		FPS:            cfg.Render.FPS,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		SessionOptions: session.OptionsFromConfig(&cfg, c.Logger),
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	printSuccess("Serving on %s", addr)
	printKeyValue("Vault", cfg.Vault.Backend)
	printKeyValue("Cache", cfg.Cache.Backend)
	return srv.ListenAndServe(ctx, addr)
}
