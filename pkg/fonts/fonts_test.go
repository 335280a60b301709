package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

func TestResolverFallback(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name string
		spec string
		ok   bool
	}{
		{"empty", "", false},
		{"missing file", filepath.Join(t.TempDir(), "nope.ttf"), false},
		{"builtin regular", "go-regular", true},
		{"builtin bold", "Go-Bold", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := r.Font(tt.spec)
			if f == nil {
				t.Fatal("Font returned nil")
			}
			if ok != tt.ok {
				t.Errorf("Font(%q) ok = %v, want %v", tt.spec, ok, tt.ok)
			}
		})
	}
}

func TestResolverLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.ttf")
	if err := os.WriteFile(path, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver()
	f, ok := r.Font(path)
	if !ok {
		t.Fatal("expected file font to load")
	}
	if f == Fallback() {
		t.Error("got fallback font for a valid file")
	}
	again, _ := r.Font(path)
	if again != f {
		t.Error("second lookup should hit the cache")
	}
}

func TestResolverCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, ok := NewResolver().Font(path)
	if ok || f != Fallback() {
		t.Error("corrupt font should resolve to the fallback")
	}
}

func TestFaceMetrics(t *testing.T) {
	face, _ := NewResolver().Face("", 64)
	defer face.Close()

	m := face.Metrics()
	if m.Ascent.Ceil() <= 0 || m.Ascent.Ceil() > 64 {
		t.Errorf("ascent = %d px, want within (0,64]", m.Ascent.Ceil())
	}
	if w := font.MeasureString(face, "Hello"); w.Ceil() <= 0 {
		t.Errorf("MeasureString = %v", w)
	}
}
