// Package compose renders covers from a template and per-render content.
//
// A render runs a fixed sequence: the background is drawn first and
// establishes the canvas, then every slot in template order, then every text
// block in template order. Soft failures (a missing slot image, an unreadable
// background override, an unloadable font) are absorbed where they happen and
// reported through [observability.RenderHooks.OnFallback]. Only a degenerate
// perspective solve or an output failure aborts a render.
//
// # Usage
//
//	c := compose.New(compose.Options{})
//	img, err := c.ComposeCover(ctx, input, def)
//	err = c.RenderToFile(ctx, input, def, "out/cover.png")
package compose

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/fonts"
	"github.com/matzehuels/coverkit/pkg/geometry"
	"github.com/matzehuels/coverkit/pkg/observability"
	"github.com/matzehuels/coverkit/pkg/template"
)

// DefaultPreviewSize is the longest preview edge when none is given.
const DefaultPreviewSize = 480

// Options configures a Composer.
type Options struct {
	// CameraFactor sets the perspective camera distance for tilted slots as a
	// multiple of the slot's longer side. Zero selects
	// [geometry.DefaultCameraFactor].
	CameraFactor float64

	// Fonts resolves text block fonts. Nil creates a private resolver.
	Fonts *fonts.Resolver
}

// Composer renders covers. It is safe for concurrent use; every call works on
// its own canvas.
type Composer struct {
	cameraFactor float64
	fonts        *fonts.Resolver
}

// New creates a Composer.
func New(opts Options) *Composer {
	c := &Composer{cameraFactor: opts.CameraFactor, fonts: opts.Fonts}
	if c.cameraFactor <= 0 {
		c.cameraFactor = geometry.DefaultCameraFactor
	}
	if c.fonts == nil {
		c.fonts = fonts.NewResolver()
	}
	return c
}

// CameraFactor returns the perspective camera factor used for tilted slots.
func (c *Composer) CameraFactor() float64 { return c.cameraFactor }

var defaultComposer = New(Options{})

// ComposeCover renders in with the default Composer.
func ComposeCover(ctx context.Context, in template.RenderInput, def *template.Definition) (*image.NRGBA, error) {
	return defaultComposer.ComposeCover(ctx, in, def)
}

// RenderToFile renders in with the default Composer and writes a PNG.
func RenderToFile(ctx context.Context, in template.RenderInput, def *template.Definition, outputPath string) error {
	return defaultComposer.RenderToFile(ctx, in, def, outputPath)
}

// BuildPreview renders in with the default Composer and downscales it.
func BuildPreview(ctx context.Context, in template.RenderInput, def *template.Definition, maxSize int) (*image.NRGBA, error) {
	return defaultComposer.BuildPreview(ctx, in, def, maxSize)
}

// ComposeCover renders a full-size cover. def and in are not modified.
func (c *Composer) ComposeCover(ctx context.Context, in template.RenderInput, def *template.Definition) (img *image.NRGBA, err error) {
	if def == nil {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "no template given")
	}

	hooks := observability.Render()
	start := time.Now()
	hooks.OnComposeStart(ctx, def.Key)
	defer func() { hooks.OnComposeComplete(ctx, def.Key, time.Since(start), err) }()

	sm := newStageMachine(ctx, def.Key)

	canvas := drawBackground(ctx, def, strings.TrimSpace(in.BackgroundPath))
	if err := sm.advance(StageBackgroundDrawn); err != nil {
		return nil, err
	}

	for _, s := range def.Slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		binding := strings.TrimSpace(in.SlotPaths[s.Key])
		if binding == "" {
			continue
		}
		src, err := loadSource(binding)
		if err != nil {
			hooks.OnFallback(ctx, "slot", s.Key, err.Error())
			continue
		}
		if src == nil {
			hooks.OnFallback(ctx, "slot", s.Key, "file not found: "+binding)
			continue
		}
		if err := c.placeSlot(canvas, src, s); err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "slot %q", s.Key)
		}
	}
	if err := sm.advance(StageSlotsDrawn); err != nil {
		return nil, err
	}

	for _, t := range def.Texts {
		style := t.EffectiveStyle(in.TextColors[t.Key])
		face, ok := c.fonts.Face(style.Font, float64(style.Size))
		if !ok && style.Font != "" {
			hooks.OnFallback(ctx, "text", t.Key, "font unavailable: "+style.Font)
		}
		drawText(canvas, face, t.Box, style, in.Texts[t.Key])
		face.Close()
	}
	if err := sm.advance(StageTextsDrawn); err != nil {
		return nil, err
	}
	if err := sm.advance(StageDone); err != nil {
		return nil, err
	}
	return canvas, nil
}

// RenderToFile renders a cover and writes it to outputPath as PNG, creating
// parent directories. The file appears only once fully written; on failure
// nothing is left at outputPath.
func (c *Composer) RenderToFile(ctx context.Context, in template.RenderInput, def *template.Definition, outputPath string) error {
	img, err := c.ComposeCover(ctx, in, def)
	if err != nil {
		return err
	}
	return WriteAtomic(outputPath, func(w io.Writer) error { return EncodePNG(w, img) })
}

// BuildPreview renders a cover and downscales it so its longer edge is at
// most maxSize. Non-positive maxSize selects [DefaultPreviewSize].
func (c *Composer) BuildPreview(ctx context.Context, in template.RenderInput, def *template.Definition, maxSize int) (*image.NRGBA, error) {
	img, err := c.ComposeCover(ctx, in, def)
	if err != nil {
		return nil, err
	}
	return Preview(img, maxSize), nil
}

// Preview downscales img so its longer edge is at most maxSize. It never
// upscales.
func Preview(img *image.NRGBA, maxSize int) *image.NRGBA {
	if maxSize <= 0 {
		maxSize = DefaultPreviewSize
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scale := min(float64(maxSize)/float64(max(w, h)), 1)
	if scale >= 1 {
		return img
	}
	return imaging.Resize(img, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale)), imaging.Lanczos)
}

// WriteAtomic creates path's parent directories and writes through a
// temporary file in the same directory that is renamed into place once write
// succeeds.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "create output directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".coverkit-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "create temp file in %s", dir)
	}
	name := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(name)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "move output into place at %s", path)
	}
	return nil
}
