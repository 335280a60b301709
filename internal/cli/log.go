// Package cli implements the coverkit command-line interface.
//
// Commands render single covers and previews from flags, run CSV batches,
// manage templates and the render cache, and serve the HTTP API. The CLI is
// built using cobra and logs through charmbracelet/log; --verbose (-v)
// enables debug output, including compose stages and cache traffic.
//
// # Commands
//
//   - render, preview: one cover from --template, --text, --slot flags
//   - batch: one cover per CSV row, with a live progress view on terminals
//   - template: list, show, init, import, csv, validate
//   - cache: clear or locate the file cache
//   - serve: the HTTP API
//
// # Configuration
//
// Settings come from $XDG_CONFIG_HOME/coverkit/config.toml (or --config);
// flags override them.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default()
// when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
