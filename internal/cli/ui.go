package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/pipeline"
)

// stdout receives all human-facing status lines.
var stdout io.Writer = os.Stdout

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFresh       = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printLine(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(styleIconError, iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(styleIconWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints the cover size and whether it came from the cache.
func printStats(width, height int, cached bool) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf("%d×%d px · ", width, height))+cacheBadge(cached))
}

func cacheBadge(cached bool) string {
	if cached {
		return styleCached.Render(iconCached)
	}
	return styleFresh.Render(iconFresh)
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// rowLine formats one batch row for the summary and the progress view.
func rowLine(row pipeline.RowResult) string {
	switch {
	case row.Err != nil:
		return styleIconError.Render(iconError) + fmt.Sprintf(" row %d  ", row.Row) + StyleDim.Render(errors.UserMessage(row.Err))
	case row.Warning != "":
		return styleIconWarning.Render(iconWarning) + fmt.Sprintf(" row %d  ", row.Row) + StyleValue.Render(row.Output) + "  " + StyleWarning.Render(row.Warning)
	case row.Cached:
		return styleIconSuccess.Render(iconSuccess) + fmt.Sprintf(" row %d  ", row.Row) + StyleValue.Render(row.Output) + " " + cacheBadge(true)
	default:
		return styleIconSuccess.Render(iconSuccess) + fmt.Sprintf(" row %d  ", row.Row) + StyleValue.Render(row.Output)
	}
}
