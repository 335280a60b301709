package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/config"
	"github.com/matzehuels/coverkit/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered cover cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.CacheNone:
				printInfo("Caching is disabled")
				return nil
			case config.CacheRedis:
				return errors.New(errors.ErrCodeUnsupported, "cache clear only supports the file backend; entries in redis expire on their own")
			}

			dir := c.Config.Cache.Dir
			if dir == "" {
				dir = cache.DefaultDir()
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared cached renders")
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != config.CacheFile {
				return errors.New(errors.ErrCodeUnsupported, "cache backend %q has no directory", c.Config.Cache.Backend)
			}
			fmt.Fprintln(stdout, c.Config.Cache.Dir)
			return nil
		},
	}
}
