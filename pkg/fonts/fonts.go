// Package fonts resolves font specifications to font faces.
//
// A font specification is either a path to a TrueType/OpenType file, the file
// name of an installed system font (looked up with go-findfont, e.g. "Arial" or
// "DejaVuSans.ttf"), or one of the built-in names "go-regular" / "go-bold".
// Anything that cannot be loaded resolves to the built-in Go Regular face, so
// text rendering never fails because of a font.
package fonts

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Built-in font names.
const (
	GoRegular = "go-regular"
	GoBold    = "go-bold"
)

var (
	builtinOnce sync.Once
	builtin     map[string]*opentype.Font
)

func builtins() map[string]*opentype.Font {
	builtinOnce.Do(func() {
		builtin = make(map[string]*opentype.Font, 2)
		// The embedded Go fonts are known-good; a parse failure here is a
		// broken build.
		for name, data := range map[string][]byte{GoRegular: goregular.TTF, GoBold: gobold.TTF} {
			f, err := opentype.Parse(data)
			if err != nil {
				panic("fonts: parse embedded " + name + ": " + err.Error())
			}
			builtin[name] = f
		}
	})
	return builtin
}

// Fallback returns the parsed Go Regular font.
func Fallback() *opentype.Font {
	return builtins()[GoRegular]
}

// Resolver loads and caches parsed fonts. It is safe for concurrent use.
// Faces returned by [Resolver.Face] are not; create one per goroutine.
type Resolver struct {
	mu     sync.Mutex
	parsed map[string]*opentype.Font
	failed map[string]bool
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		parsed: make(map[string]*opentype.Font),
		failed: make(map[string]bool),
	}
}

// Font returns the parsed font for spec. The second result is false when the
// fallback font was substituted.
func (r *Resolver) Font(spec string) (*opentype.Font, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Fallback(), false
	}
	if f, ok := builtins()[strings.ToLower(spec)]; ok {
		return f, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.parsed[spec]; ok {
		return f, true
	}
	if r.failed[spec] {
		return Fallback(), false
	}

	f, err := load(spec)
	if err != nil {
		r.failed[spec] = true
		return Fallback(), false
	}
	r.parsed[spec] = f
	return f, true
}

// Face returns a face for spec at size pixels. The second result is false when
// the fallback font was substituted.
func (r *Resolver) Face(spec string, size float64) (font.Face, bool) {
	if size <= 0 {
		size = 1
	}
	f, ok := r.Font(spec)
	face, err := NewFace(f, size)
	if err != nil {
		face, _ = NewFace(Fallback(), size)
		return face, false
	}
	return face, ok
}

// NewFace builds a face at size pixels (72 DPI, so points equal pixels).
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// load reads spec as a file path, falling back to a system font lookup.
func load(spec string) (*opentype.Font, error) {
	path := spec
	if info, err := os.Stat(spec); err != nil || info.IsDir() {
		found, ferr := findfont.Find(spec)
		if ferr != nil {
			return nil, ferr
		}
		path = found
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}
