package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/compose"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/template"
)

// contentFlags are the per-render bindings shared by render and preview.
type contentFlags struct {
	template   string   // template key
	background string   // background image override
	texts      []string // key=content
	colors     []string // key=#hex
	slots      []string // key=path or key=qr:<text>
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.template, "template", "t", template.Default().Key, "template key")
	cmd.Flags().StringVarP(&f.background, "background", "b", "", "background image overriding the template's")
	cmd.Flags().StringArrayVar(&f.texts, "text", nil, "text block content as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.colors, "text-color", nil, "text color override as key=#rrggbb (repeatable)")
	cmd.Flags().StringArrayVar(&f.slots, "slot", nil, "slot image as key=path or key=qr:<text> (repeatable)")
}

// input builds the render input described by the flags.
func (f *contentFlags) input() (template.RenderInput, error) {
	in := template.RenderInput{
		TemplateKey:    strings.TrimSpace(f.template),
		BackgroundPath: strings.TrimSpace(f.background),
	}
	var err error
	if in.Texts, err = parseAssignments("--text", f.texts); err != nil {
		return in, err
	}
	if in.TextColors, err = parseAssignments("--text-color", f.colors); err != nil {
		return in, err
	}
	if in.SlotPaths, err = parseAssignments("--slot", f.slots); err != nil {
		return in, err
	}
	return in, nil
}

// parseAssignments turns key=value flags into a map. Keys are trimmed;
// values are kept verbatim.
func parseAssignments(flag string, raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s %q: expected key=value", flag, kv)
		}
		out[k] = v
	}
	return out, nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		content contentFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one cover",
		Long: `Render one full-size cover from a template and content given as flags.

  coverkit render -t promo --text title="Spring Sale" --slot screenshot-1=shot.png -o sale.png

A bare --output file name is placed in the configured output directory. Slots whose
image is missing are skipped, as are fonts that cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := content.input()
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), in, output, noCache, refresh)
		},
	}

	content.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("template", c.templateKeys)
	cmd.Flags().StringVarP(&output, "output", "o", defaultOutputName, "output file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, in template.RenderInput, output string, noCache, refresh bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	def, err := runner.Store.Get(ctx, in.TemplateKey)
	if err != nil {
		return err
	}

	dir, name := splitOutput(output)
	in.OutputName = name
	opts := c.pipelineOptions(dir, refresh)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", def.Key))
	spinner.Start()
	res, err := runner.RenderToFile(ctx, def, in, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	printSuccess("Rendered %s", StyleHighlight.Render(def.Key))
	printFile(res.Output)
	printStats(res.Width, res.Height, res.Cached)
	return nil
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		content contentFlags
		output  string
		maxSize int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a downscaled preview of one cover",
		Long: `Render a cover and downscale it so its longer edge is at most --max pixels.
Previews are never upscaled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := content.input()
			if err != nil {
				return err
			}
			return c.runPreview(cmd.Context(), in, output, maxSize, noCache)
		},
	}

	content.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("template", c.templateKeys)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <template>.preview.png)")
	cmd.Flags().IntVar(&maxSize, "max", 0, "longest preview edge in pixels (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, in template.RenderInput, output string, maxSize int, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	def, err := runner.Store.Get(ctx, in.TemplateKey)
	if err != nil {
		return err
	}

	opts := c.pipelineOptions("", false)
	if maxSize != 0 {
		opts.PreviewSize = maxSize
	}
	res, err := runner.Preview(ctx, def, in, opts)
	if err != nil {
		return err
	}

	if output == "" {
		output = def.Key + ".preview.png"
	}
	dir, name := splitOutput(output)
	if dir == "" {
		dir = opts.OutputDir
	}
	path := filepath.Join(dir, name)
	err = compose.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(res.PNG)
		return err
	})
	if err != nil {
		return err
	}

	printSuccess("Preview of %s", StyleHighlight.Render(def.Key))
	printFile(path)
	printStats(res.Width, res.Height, res.Cached)
	return nil
}

// splitOutput separates an --output path into a directory and a file name.
// A bare file name has no directory, so the configured one applies.
func splitOutput(output string) (dir, name string) {
	dir, name = filepath.Split(filepath.Clean(output))
	if dir == "" {
		return "", name
	}
	return filepath.Clean(dir), name
}
