package pipeline

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/template"
)

func smallTemplate(key string) *template.Definition {
	return &template.Definition{
		Key:    key,
		Name:   key,
		Width:  60,
		Height: 40,
		Background: template.BackgroundConfig{
			Kind:    template.KindColor,
			Value:   "#336699",
			Opacity: 1,
		},
		Slots: []template.Slot{{Key: "shot", Box: template.Box{X: 5, Y: 5, W: 20, H: 20}, Fit: template.FitCover}},
		Texts: []template.TextBlock{{
			Key:   "title",
			Box:   template.Box{X: 0, Y: 0, W: 60, H: 20},
			Style: template.TextStyle{Size: 12, Color: "#000000", Align: template.AlignLeft, LineSpacing: 1.2},
		}},
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOptionsDefaults(t *testing.T) {
	var o BatchOptions
	o.SetDefaults()
	if o.OutputDir != DefaultOutputDir || o.PreviewSize != DefaultPreviewSize || o.Workers != DefaultWorkers {
		t.Errorf("defaults = %+v", o)
	}
	if o.Logger == nil {
		t.Error("logger should default to a discarding logger")
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	o.Workers = MaxWorkers + 1
	if err := o.Validate(); err == nil {
		t.Error("too many workers should fail")
	}
	o.Workers = 1
	o.PreviewSize = -1
	if err := o.Validate(); err == nil {
		t.Error("negative preview size should fail")
	}
}

func TestRenderUsesCache(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	def := smallTemplate("promo")
	in := template.RenderInput{Texts: map[string]string{"title": "Hi"}}

	first, err := r.Render(ctx, def, in, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first.Cached {
		t.Error("first render should miss the cache")
	}
	if first.Width != 60 || first.Height != 40 {
		t.Errorf("size = %dx%d, want 60x40", first.Width, first.Height)
	}

	second, err := r.Render(ctx, def, in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second render should hit the cache")
	}
	if string(second.PNG) != string(first.PNG) {
		t.Error("cached bytes differ from rendered bytes")
	}

	refreshed, err := r.Render(ctx, def, in, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Cached {
		t.Error("refresh should bypass the cache")
	}

	in.Texts["title"] = "Hello"
	changed, err := r.Render(ctx, def, in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if changed.Cached {
		t.Error("changed text should miss the cache")
	}
}

func TestPreviewDownscales(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Preview(context.Background(), template.Default(), template.RenderInput{}, Options{})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Width != 270 || res.Height != 480 {
		t.Errorf("preview = %dx%d, want 270x480", res.Width, res.Height)
	}

	small, err := r.Preview(context.Background(), template.Default(), template.RenderInput{}, Options{PreviewSize: 192})
	if err != nil {
		t.Fatal(err)
	}
	if small.Cached || small.Height != 192 {
		t.Errorf("preview at 192: cached=%v height=%d", small.Cached, small.Height)
	}
}

func TestRenderToFile(t *testing.T) {
	r := newTestRunner(t)
	dir := t.TempDir()
	in := template.RenderInput{OutputName: "nested/cover.png"}

	res, err := r.RenderToFile(context.Background(), smallTemplate("promo"), in, Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("RenderToFile: %v", err)
	}
	want := filepath.Join(dir, "nested", "cover.png")
	if res.Output != want {
		t.Errorf("output = %s, want %s", res.Output, want)
	}
	img, err := imaging.Open(want)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if img.Bounds().Dx() != 60 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestRenderToFileRejectsBadNames(t *testing.T) {
	r := newTestRunner(t)
	for _, name := range []string{"", "../escape.png", "/abs/cover.png"} {
		_, err := r.RenderToFile(context.Background(), smallTemplate("promo"), template.RenderInput{OutputName: name}, Options{OutputDir: t.TempDir()})
		if !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("name %q: err = %v, want INVALID_PATH", name, err)
		}
	}
}

func TestResolveTemplate(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	def, warning, err := r.ResolveTemplate(ctx, "default")
	if err != nil || def.Key != "default" || warning != "" {
		t.Errorf("nil store, default: %v %q %v", def, warning, err)
	}

	store := template.NewFileStore(t.TempDir())
	r.Store = store

	def, warning, err = r.ResolveTemplate(ctx, "missing")
	if err != nil || def.Key != "default" || warning == "" {
		t.Errorf("empty store: key=%s warning=%q err=%v", def.Key, warning, err)
	}

	if err := store.Save(ctx, smallTemplate("promo")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, smallTemplate("sale")); err != nil {
		t.Fatal(err)
	}

	def, warning, err = r.ResolveTemplate(ctx, "sale")
	if err != nil || def.Key != "sale" || warning != "" {
		t.Errorf("known key: key=%s warning=%q err=%v", def.Key, warning, err)
	}

	def, warning, err = r.ResolveTemplate(ctx, "missing")
	if err != nil || def.Key != "promo" {
		t.Errorf("unknown key should fall back to first stored template, got %s (%v)", def.Key, err)
	}
	if !strings.Contains(warning, `"missing"`) {
		t.Errorf("warning = %q", warning)
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	store := template.NewFileStore(t.TempDir())
	if err := store.Save(ctx, smallTemplate("promo")); err != nil {
		t.Fatal(err)
	}
	r.Store = store

	shot := filepath.Join(t.TempDir(), "shot.png")
	if err := imaging.Save(imaging.New(10, 10, color.NRGBA{R: 255, A: 255}), shot); err != nil {
		t.Fatal(err)
	}

	csv := "template_key,output_name,text.title,slot.shot\n" +
		"promo,one.png,First," + shot + "\n" +
		"promo,,Second,\n" +
		"unknown,three.png,Third,\n"
	table, err := batch.Read(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	var calls atomic.Int32
	res, err := r.Batch(ctx, table, BatchOptions{
		Options: Options{OutputDir: out},
		Workers: 2,
		OnRow:   func(RowResult) { calls.Add(1) },
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if res.Total != 3 || res.Succeeded != 2 {
		t.Errorf("succeeded %d/%d, want 2/3", res.Succeeded, res.Total)
	}
	if calls.Load() != 3 {
		t.Errorf("OnRow called %d times, want 3", calls.Load())
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}

	failed := res.Failed()
	if len(failed) != 1 || failed[0].Row != 2 || !errors.Is(failed[0].Err, errors.ErrCodeInvalidCSV) {
		t.Errorf("failed rows = %+v", failed)
	}
	if res.Rows[2].Warning == "" || res.Rows[2].Template != "promo" {
		t.Errorf("unknown template row = %+v, want fallback with warning", res.Rows[2])
	}

	for _, name := range []string{"one.png", "three.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := batch.Read(strings.NewReader("template_key,output_name\ndefault,a.png\ndefault,b.png\n"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := newTestRunner(t).Batch(ctx, table, BatchOptions{Options: Options{OutputDir: t.TempDir()}})
	if err == nil {
		t.Fatal("expected context error")
	}
	if res.Succeeded != 0 || res.Total != 2 {
		t.Errorf("succeeded %d/%d, want 0/2", res.Succeeded, res.Total)
	}
}

func TestInputHash(t *testing.T) {
	def := smallTemplate("promo")
	base := template.RenderInput{TemplateKey: "promo", OutputName: "a.png", Texts: map[string]string{"title": "Hi"}}

	renamed := base
	renamed.OutputName = "b.png"
	if InputHash(def, base) != InputHash(def, renamed) {
		t.Error("output name should not change the hash")
	}

	edited := base
	edited.Texts = map[string]string{"title": "Bye"}
	if InputHash(def, base) == InputHash(def, edited) {
		t.Error("text content should change the hash")
	}

	restyled := smallTemplate("promo")
	restyled.Background.Value = "#000000"
	if InputHash(def, base) == InputHash(restyled, base) {
		t.Error("template changes should change the hash")
	}

	path := filepath.Join(t.TempDir(), "shot.png")
	bound := base
	bound.SlotPaths = map[string]string{"shot": path}
	before := InputHash(def, bound)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if InputHash(def, bound) == before {
		t.Error("creating a bound file should change the hash")
	}
}
