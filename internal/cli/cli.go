package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/buildinfo"
	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/compose"
	"github.com/matzehuels/coverkit/pkg/config"
	"github.com/matzehuels/coverkit/pkg/observability"
	"github.com/matzehuels/coverkit/pkg/pipeline"
	"github.com/matzehuels/coverkit/pkg/template"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "coverkit"

	// defaultOutputName is used by render when neither --output nor a name is given.
	defaultOutputName = "cover.png"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Coverkit composes promotional covers from templates",
		Long: `Coverkit renders cover images from a template (background, image slots,
text blocks) and per-render content: one cover from flags, or one cover per row
of a CSV file.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/coverkit/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and routes library events to the logger.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	hooks := &logHooks{logger: c.Logger}
	observability.SetRenderHooks(hooks)
	observability.SetCacheHooks(hooks)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use, backed by the configured
// cache and template store.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var ch cache.Cache = cache.NewNullCache()
	if !noCache {
		if ch, err = c.Config.OpenCache(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}

	runner := pipeline.NewRunner(ch, c.Config.Keyer(), loggerFromContext(ctx))
	runner.Composer = compose.New(compose.Options{CameraFactor: c.Config.CameraFactor})
	runner.Store = store
	runner.TTL = c.Config.Cache.TTL
	return runner, nil
}

// openStore opens the configured template store and reports load warnings.
func (c *CLI) openStore(ctx context.Context) (template.Store, error) {
	store, warnings, err := c.Config.OpenStore(ctx)
	for _, w := range warnings {
		c.Logger.Warn("template", "problem", w.String())
	}
	if err != nil {
		return nil, fmt.Errorf("open template store: %w", err)
	}
	return store, nil
}

// pipelineOptions returns per-render options from config, with the
// command's overrides applied.
func (c *CLI) pipelineOptions(outputDir string, refresh bool) pipeline.Options {
	opts := c.Config.PipelineOptions()
	if outputDir != "" {
		opts.OutputDir = outputDir
	}
	opts.Refresh = refresh
	opts.Logger = c.Logger
	return opts
}
