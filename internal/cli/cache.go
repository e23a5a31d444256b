package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/cache"
	"github.com/matzehuels/nodecanvas/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached imports, layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := clearCache(cmd.Context(), c.Config)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			if c.Config.Cache.Backend == config.CacheFile {
				if dir, err := c.Config.CacheDir(); err == nil {
					printDetail("Directory: %s", dir)
				}
			}
			return nil
		},
	}
}

// clearCache empties the persistent backend selected by cfg. Memory and
// null caches live only as long as a process, so there is nothing to clear.
func clearCache(ctx context.Context, cfg *config.Config) (int, error) {
	switch cfg.Cache.Backend {
	case config.CacheFile:
		dir, err := cfg.CacheDir()
		if err != nil {
			return 0, fmt.Errorf("get cache dir: %w", err)
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return 0, fmt.Errorf("open cache: %w", err)
		}
		return fc.Clear()
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, appName)
		if err != nil {
			return 0, fmt.Errorf("open cache: %w", err)
		}
		defer rc.Close()
		return rc.Clear(ctx)
	}
	return 0, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.CacheRedis:
				fmt.Println(c.Config.Cache.RedisURL)
				return nil
			case config.CacheMemory, config.CacheNone:
				printInfo("The %s cache is not persisted", c.Config.Cache.Backend)
				return nil
			}
			dir, err := c.Config.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
