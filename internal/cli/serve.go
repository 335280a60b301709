package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		assetDir string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Long: `Serve template listing, render and preview endpoints over HTTP.

  GET  /api/health
  GET  /api/templates
  GET  /api/templates/{key}
  GET  /api/templates/{key}/csv
  POST /api/render
  POST /api/preview?max=N

With --asset-dir, image paths in requests must be relative to that directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, assetDir, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&assetDir, "asset-dir", "", "confine request image paths to this directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, assetDir string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := api.New(api.Config{
		Runner:      runner,
		Store:       runner.Store,
		Logger:      c.Logger,
		AssetDir:    assetDir,
		PreviewSize: c.Config.PreviewSize,
	})

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	return srv.ListenAndServe(ctx, addr)
}
