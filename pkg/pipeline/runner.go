package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/compose"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/observability"
	"github.com/matzehuels/coverkit/pkg/template"
)

// Runner encapsulates rendering with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner holds no per-render state. Multiple goroutines can safely use the
// same Runner with different inputs.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Composer *compose.Composer

	// Store resolves template keys for batch rows. Nil behaves as an empty
	// store, so every row renders the built-in default template.
	Store template.Store

	// TTL overrides [cache.TTLArtifact] for full-size renders when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Composer: compose.New(compose.Options{}),
	}
}

// Render composes a full-size cover and returns it PNG-encoded.
func (r *Runner) Render(ctx context.Context, def *template.Definition, in template.RenderInput, opts Options) (*Result, error) {
	return r.render(ctx, def, in, opts, cache.KindRender)
}

// Preview composes a cover downscaled to opts.PreviewSize and returns it
// PNG-encoded.
func (r *Runner) Preview(ctx context.Context, def *template.Definition, in template.RenderInput, opts Options) (*Result, error) {
	return r.render(ctx, def, in, opts, cache.KindPreview)
}

func (r *Runner) render(ctx context.Context, def *template.Definition, in template.RenderInput, opts Options, kind string) (*Result, error) {
	if def == nil {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "no template given")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	start := time.Now()
	keyOpts := cache.ArtifactKeyOpts{Kind: kind, CameraFactor: r.Composer.CameraFactor()}
	ttl := cache.TTLArtifact
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if kind == cache.KindPreview {
		keyOpts.MaxSize = opts.PreviewSize
		ttl = cache.TTLPreview
	}
	key := r.Keyer.ArtifactKey(InputHash(def, in), keyOpts)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
				return &Result{
					Template: def.Key,
					PNG:      data,
					Width:    cfg.Width,
					Height:   cfg.Height,
					Cached:   true,
					Duration: time.Since(start),
				}, nil
			}
			// Undecodable entry: fall through and overwrite it
		}
	}

	var (
		img *image.NRGBA
		err error
	)
	if kind == cache.KindPreview {
		img, err = r.Composer.BuildPreview(ctx, in, def, opts.PreviewSize)
	} else {
		img, err = r.Composer.ComposeCover(ctx, in, def)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := compose.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		opts.Logger.Debug("cache write failed", "key", key, "err", err)
	}

	return &Result{
		Template: def.Key,
		PNG:      buf.Bytes(),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Duration: time.Since(start),
	}, nil
}

// RenderToFile renders a cover and writes it to opts.OutputDir joined with
// in.OutputName. The file appears atomically; a failed render leaves nothing
// behind.
func (r *Runner) RenderToFile(ctx context.Context, def *template.Definition, in template.RenderInput, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	res, err := r.renderFile(ctx, def, in, opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("rendered cover",
		"template", res.Template,
		"output", res.Output,
		"duration", res.Duration,
		"cached", res.Cached)
	return res, nil
}

func (r *Runner) renderFile(ctx context.Context, def *template.Definition, in template.RenderInput, opts Options) (*Result, error) {
	name := strings.TrimSpace(in.OutputName)
	if err := errors.ValidateOutputName(name); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	path := filepath.Join(opts.OutputDir, name)

	res, err := r.Render(ctx, def, in, opts)
	if err != nil {
		return nil, err
	}
	err = compose.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(res.PNG)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Output = path
	return res, nil
}

// ResolveTemplate looks key up in the store. An unknown key falls back to the
// first stored template, or to the built-in default when the store is empty;
// the returned warning describes the substitution.
func (r *Runner) ResolveTemplate(ctx context.Context, key string) (*template.Definition, string, error) {
	if r.Store == nil {
		def := template.Default()
		if key == def.Key {
			return def, "", nil
		}
		return def, fmt.Sprintf("template %q not found, using built-in %q", key, def.Key), nil
	}

	def, err := r.Store.Get(ctx, key)
	if err == nil {
		return def, "", nil
	}
	if !errors.Is(err, errors.ErrCodeTemplateNotFound) {
		return nil, "", err
	}

	defs, err := r.Store.List(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(defs) > 0 {
		return defs[0], fmt.Sprintf("template %q not found, using %q", key, defs[0].Key), nil
	}
	def = template.Default()
	return def, fmt.Sprintf("template %q not found, using built-in %q", key, def.Key), nil
}

// Batch renders one cover per table row into opts.OutputDir. Rows are
// independent: a failing row is recorded and the run continues. Up to
// opts.Workers rows render concurrently, each on its own canvas.
//
// The returned error is non-nil only for invalid options or when ctx is
// canceled; per-row failures are reported in the result.
func (r *Runner) Batch(ctx context.Context, table *batch.Table, opts BatchOptions) (*BatchResult, error) {
	r.applyLogger(&opts.Options)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid batch options")
	}

	runID := uuid.NewString()
	hooks := observability.Batch()
	logger := opts.Logger.With("run", runID[:8])
	start := time.Now()

	result := &BatchResult{
		RunID: runID,
		Total: len(table.Rows),
		Rows:  make([]RowResult, len(table.Rows)),
	}
	hooks.OnBatchStart(ctx, runID, result.Total)
	logger.Debug("batch started", "rows", result.Total, "workers", opts.Workers)

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(opts.Workers)
	for i, row := range table.Rows {
		g.Go(func() error {
			rr := r.batchRow(ctx, row, opts.Options)
			result.Rows[i] = rr
			hooks.OnRowComplete(ctx, runID, row.Line, rr.Err)

			switch {
			case rr.Err != nil:
				logger.Warn("row failed", "row", row.Line, "err", errors.UserMessage(rr.Err))
			case rr.Warning != "":
				logger.Warn(rr.Warning, "row", row.Line)
			default:
				logger.Debug("rendered cover", "row", row.Line, "output", rr.Output, "cached", rr.Cached)
			}

			if opts.OnRow != nil {
				mu.Lock()
				opts.OnRow(rr)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, rr := range result.Rows {
		if rr.OK() {
			result.Succeeded++
		}
	}
	result.Duration = time.Since(start)
	hooks.OnBatchComplete(ctx, runID, result.Succeeded, result.Total, result.Duration)
	logger.Info("batch complete",
		"succeeded", result.Succeeded,
		"total", result.Total,
		"duration", result.Duration)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) batchRow(ctx context.Context, row batch.Row, opts Options) RowResult {
	rr := RowResult{Row: row.Line}
	if err := ctx.Err(); err != nil {
		rr.Err = err
		return rr
	}

	in, err := batch.RowToInput(row)
	if err != nil {
		rr.Err = err
		return rr
	}
	def, warning, err := r.ResolveTemplate(ctx, in.TemplateKey)
	if err != nil {
		rr.Err = err
		return rr
	}
	rr.Template, rr.Warning = def.Key, warning

	res, err := r.renderFile(ctx, def, in, opts)
	if err != nil {
		rr.Err = err
		return rr
	}
	rr.Output, rr.Cached = res.Output, res.Cached
	return rr
}

// Close releases resources held by the runner (the cache and the store).
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// InputHash identifies everything that determines a render's pixels: the
// encoded template, the content bindings and a fingerprint (path, size,
// modification time) of every file the render would read. The output name
// and template key are excluded since they do not affect the image.
func InputHash(def *template.Definition, in template.RenderInput) string {
	var files []cache.FileFingerprint
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path != "" && !strings.HasPrefix(path, compose.QRPrefix) {
			files = append(files, cache.Fingerprint(path))
		}
	}

	add(in.BackgroundPath)
	if def.Background.Kind == template.KindImage {
		add(def.Background.Value)
	}
	for _, s := range def.Slots {
		add(in.SlotPaths[s.Key])
	}
	for _, t := range def.Texts {
		add(t.Style.Font)
	}

	content := in
	content.TemplateKey, content.OutputName = "", ""
	return cache.HashJSON(template.Encode(def), content, files)
}
