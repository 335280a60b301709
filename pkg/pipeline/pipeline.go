// Package pipeline provides the render front-end shared by the CLI and the
// HTTP API.
//
// The [Runner] wraps [compose] with an artifact cache, atomic file output,
// template resolution against a [template.Store] and CSV batch execution. By
// centralizing this logic, the CLI and the API render identical bytes for
// identical inputs and share cached artifacts.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Store = store
//
//	res, err := runner.RenderToFile(ctx, def, input, pipeline.Options{OutputDir: "out"})
//
//	table, _ := batch.ReadFile("covers.csv")
//	summary, err := runner.Batch(ctx, table, pipeline.BatchOptions{
//	    Options: pipeline.Options{OutputDir: "out"},
//	    Workers: 4,
//	})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coverkit/pkg/compose"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultPreviewSize is the longest preview edge in pixels.
	DefaultPreviewSize = compose.DefaultPreviewSize

	// DefaultOutputDir is where rendered covers are written.
	DefaultOutputDir = "output"

	// DefaultWorkers renders batch rows sequentially.
	DefaultWorkers = 1

	// MaxWorkers bounds batch parallelism; each worker holds a full-size canvas.
	MaxWorkers = 32
)

// =============================================================================
// Options - Render Configuration
// =============================================================================

// Options controls a single render.
type Options struct {
	// OutputDir is joined with the input's output_name for file renders.
	OutputDir string `json:"output_dir,omitempty"`

	// PreviewSize bounds the longer preview edge. Zero selects the default.
	PreviewSize int `json:"preview_size,omitempty"`

	// Refresh skips the cache lookup; the fresh render is still cached.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this call.
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.PreviewSize == 0 {
		o.PreviewSize = DefaultPreviewSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option ranges.
func (o *Options) Validate() error {
	if o.PreviewSize < 0 {
		return fmt.Errorf("preview size must be positive, got %d", o.PreviewSize)
	}
	return nil
}

// BatchOptions controls a CSV batch run.
type BatchOptions struct {
	Options

	// Workers is the number of rows rendered concurrently.
	Workers int

	// OnRow, when set, is called once per finished row. Calls are serialized.
	OnRow func(RowResult)
}

// SetDefaults fills zero fields with defaults.
func (o *BatchOptions) SetDefaults() {
	o.Options.SetDefaults()
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
}

// Validate checks option ranges.
func (o *BatchOptions) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	if o.Workers > MaxWorkers {
		return fmt.Errorf("workers must be at most %d, got %d", MaxWorkers, o.Workers)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of a single render.
type Result struct {
	// Template is the key of the template that was rendered.
	Template string

	// Output is the written file path; empty for in-memory renders.
	Output string

	// PNG holds the encoded image.
	PNG []byte

	// Width and Height are the image size in pixels.
	Width, Height int

	// Cached reports whether PNG came from the cache.
	Cached bool

	Duration time.Duration
}

// RowResult is the outcome of one batch row.
type RowResult struct {
	Row      int // 1-based data row number
	Template string
	Output   string
	Cached   bool

	// Warning is set when the row's template was substituted.
	Warning string

	Err error
}

// OK reports whether the row rendered.
func (r RowResult) OK() bool { return r.Err == nil }

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID     string
	Total     int
	Succeeded int
	Rows      []RowResult
	Duration  time.Duration
}

// Failed returns the rows that did not render.
func (b *BatchResult) Failed() []RowResult {
	var out []RowResult
	for _, r := range b.Rows {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
