package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/template"
)

// templateCommand creates the template management command.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates", "tpl"},
		Short:   "Manage cover templates",
	}

	cmd.AddCommand(c.templateListCommand())
	cmd.AddCommand(c.templateShowCommand())
	cmd.AddCommand(c.templateInitCommand())
	cmd.AddCommand(c.templateImportCommand())
	cmd.AddCommand(c.templateCSVCommand())
	cmd.AddCommand(c.templateValidateCommand())

	return cmd
}

// withStore opens the template store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(template.Store) error) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// templateKeys completes template key arguments.
func (c *CLI) templateKeys(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var keys []string
	_ = c.withStore(cmd.Context(), func(s template.Store) error {
		var err error
		keys, err = s.Keys(cmd.Context())
		return err
	})
	return keys, cobra.ShellCompDirectiveNoFileComp
}

// templateListCommand creates the "template list" subcommand.
func (c *CLI) templateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s template.Store) error {
				defs, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(defs) == 0 {
					printInfo("No templates")
					return nil
				}
				fmt.Fprintln(stdout, templateTable(defs))
				return nil
			})
		},
	}
}

// templateTable renders the template listing.
func templateTable(defs []*template.Definition) string {
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, []string{
			d.Key,
			d.Name,
			fmt.Sprintf("%d×%d", d.Width, d.Height),
			joinOrDash(d.SlotKeys()),
			joinOrDash(d.TextKeys()),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "Name", "Size", "Slots", "Texts").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		}).
		Render()
}

func joinOrDash(keys []string) string {
	if len(keys) == 0 {
		return "—"
	}
	return strings.Join(keys, ", ")
}

// templateShowCommand creates the "template show" subcommand.
func (c *CLI) templateShowCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:               "show [key]",
		Short:             "Describe a template",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.templateKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s template.Store) error {
				def, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if raw {
					data, err := template.Marshal(def, template.FormatJSON)
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout, string(data))
					return nil
				}
				return printMarkdown(describeTemplate(def))
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "print the template document as JSON")

	return cmd
}

// describeTemplate renders def as a markdown summary.
func describeTemplate(def *template.Definition) string {
	var b strings.Builder
	name := def.Name
	if name == "" {
		name = def.Key
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	if d := strings.TrimSpace(def.Description); d != "" {
		b.WriteString(d + "\n\n")
	}
	fmt.Fprintf(&b, "- **Key:** `%s`\n", def.Key)
	fmt.Fprintf(&b, "- **Size:** %d × %d\n", def.Width, def.Height)
	fmt.Fprintf(&b, "- **Background:** %s\n\n", describeBackground(def.Background))

	if len(def.Slots) > 0 {
		b.WriteString("## Slots\n\n| Key | Box | Fit | Radius | Rotation |\n|---|---|---|---|---|\n")
		for _, s := range def.Slots {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
				s.Key, describeBox(s.Box), s.Fit, s.Radius.String(), describeRotation(s))
		}
		b.WriteString("\n")
	}

	if len(def.Texts) > 0 {
		b.WriteString("## Texts\n\n| Key | Box | Size | Color | Align |\n|---|---|---|---|---|\n")
		for _, t := range def.Texts {
			fmt.Fprintf(&b, "| `%s` | %s | %d | `%s` | %s |\n",
				t.Key, describeBox(t.Box), t.Style.Size, t.Style.Color, t.Style.Align)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeBox(b template.Box) string {
	return fmt.Sprintf("%d,%d %d×%d", b.X, b.Y, b.W, b.H)
}

func describeBackground(bg template.BackgroundConfig) string {
	switch {
	case bg.HasGradient():
		stops := make([]string, len(bg.Stops))
		for i, s := range bg.Stops {
			stops[i] = fmt.Sprintf("`%s` @ %g", s.Color, s.Position)
		}
		return fmt.Sprintf("%s gradient (%s)", bg.GradientType, strings.Join(stops, ", "))
	case bg.Kind == template.KindImage:
		return fmt.Sprintf("image `%s`", bg.Value)
	default:
		return fmt.Sprintf("color `%s`", bg.Value)
	}
}

func describeRotation(s template.Slot) string {
	if !s.Rotated() {
		return "—"
	}
	return fmt.Sprintf("z %g° x %g° y %g°", s.Rotation, s.RotateX, s.RotateY)
}

func printMarkdown(md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	fmt.Fprint(stdout, out)
	return nil
}

// templateInitCommand creates the "template init" subcommand.
func (c *CLI) templateInitCommand() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [key]",
		Short: "Create a new template from the built-in default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if err := errors.ValidateTemplateKey(key); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s template.Store) error {
				if _, err := s.Get(cmd.Context(), key); err == nil && !force {
					return errors.New(errors.ErrCodeInvalidInput, "template %q already exists (use --force to overwrite)", key)
				}
				def := template.Default()
				def.Key = key
				def.Name = key
				if name != "" {
					def.Name = name
				}
				if err := s.Save(cmd.Context(), def); err != nil {
					return err
				}
				printSuccess("Created template %s", StyleHighlight.Render(key))
				if fs, ok := s.(*template.FileStore); ok {
					printFile(filepath.Join(fs.Dir(), key+".json"))
				}
				printNextStep("Render", appName+" render -t "+key)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing template")

	return cmd
}

// templateImportCommand creates the "template import" subcommand.
func (c *CLI) templateImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Add a JSON or YAML template file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, warnings, err := template.LoadFile(args[0])
			printTemplateWarnings(warnings)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s template.Store) error {
				if err := s.Save(cmd.Context(), def); err != nil {
					return err
				}
				printSuccess("Imported template %s", StyleHighlight.Render(def.Key))
				return nil
			})
		},
	}
}

// templateCSVCommand creates the "template csv" subcommand.
func (c *CLI) templateCSVCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "csv [key]",
		Short:             "Export a batch CSV header for a template",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.templateKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s template.Store) error {
				def, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "-" {
					return batch.WriteHeader(stdout, def)
				}
				if output == "" {
					output = "template-" + def.Key + ".csv"
				}
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(errors.ErrCodeOutputFailed, err, "create %s", output)
				}
				if err := batch.WriteHeader(f, def); err != nil {
					f.Close()
					return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", output)
				}
				if err := f.Close(); err != nil {
					return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", output)
				}
				printSuccess("CSV header for %s", StyleHighlight.Render(def.Key))
				printFile(output)
				printNextStep("Fill in rows, then run", appName+" batch "+output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: template-<key>.csv)`)

	return cmd
}

// templateValidateCommand creates the "template validate" subcommand.
func (c *CLI) templateValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check template files without storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				def, warnings, err := template.LoadFile(path)
				if err == nil {
					err = template.Validate(def)
				}
				if err != nil {
					failed++
					printError("%s: %s", path, errors.UserMessage(err))
					continue
				}
				if len(warnings) == 0 {
					printSuccess("%s %s", path, StyleDim.Render("("+def.Key+")"))
					continue
				}
				printWarning("%s %s", path, StyleDim.Render("("+def.Key+")"))
				printTemplateWarnings(warnings)
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidTemplate, "%d of %d templates invalid", failed, len(args))
			}
			return nil
		},
	}
}

func printTemplateWarnings(warnings []template.Warning) {
	for _, w := range warnings {
		printDetail("%s", w.String())
	}
}
