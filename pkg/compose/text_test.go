package compose

import (
	"context"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font"

	"github.com/matzehuels/coverkit/pkg/fonts"
	"github.com/matzehuels/coverkit/pkg/template"
)

func testFace(t *testing.T, size float64) font.Face {
	t.Helper()
	face, err := fonts.NewFace(fonts.Fallback(), size)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	t.Cleanup(func() { face.Close() })
	return face
}

func textDef(block template.TextBlock) *template.Definition {
	def := colorDef(1080, 1920, "#ffffff")
	def.Texts = []template.TextBlock{block}
	return def
}

func titleBlock() template.TextBlock {
	return template.TextBlock{
		Key: "title",
		Box: template.Box{X: 90, Y: 120, W: 900, H: 180},
		Style: template.TextStyle{
			Size:        64,
			Color:       "#000000",
			Align:       template.AlignLeft,
			LineSpacing: 1.2,
		},
	}
}

// inkBounds returns the bounding box of pixels matching keep.
func inkBounds(img *image.NRGBA, keep func(color.NRGBA) bool) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if keep(img.NRGBAAt(x, y)) {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func isDark(c color.NRGBA) bool { return c.R < 128 && c.G < 128 && c.B < 128 }

func TestWrapText(t *testing.T) {
	face := testFace(t, 64)

	tests := []struct {
		name     string
		content  string
		maxWidth int
		minLines int
		maxLines int
	}{
		{"fits", "Hello World", 900, 1, 1},
		{"wraps", "Hello World Wide Web", 200, 2, 4},
		{"empty", "", 900, 1, 1},
		{"whitespace only", "   \t ", 900, 1, 1},
		{"long word", "Supercalifragilistic", 50, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := WrapText(face, tt.content, tt.maxWidth)
			if len(lines) < tt.minLines || len(lines) > tt.maxLines {
				t.Fatalf("got %d lines %q, want %d..%d", len(lines), lines, tt.minLines, tt.maxLines)
			}
			if len(lines) > 1 {
				for _, line := range lines {
					if w := measure(face, line); w > tt.maxWidth {
						t.Errorf("line %q is %dpx wide, max %d", line, w, tt.maxWidth)
					}
				}
			}
		})
	}
}

func TestTextStartsAtBox(t *testing.T) {
	in := template.RenderInput{Texts: map[string]string{"title": "Hello World"}}
	img, err := ComposeCover(context.Background(), in, textDef(titleBlock()))
	if err != nil {
		t.Fatalf("ComposeCover: %v", err)
	}
	ink := inkBounds(img, isDark)
	if ink.Empty() {
		t.Fatal("no text drawn")
	}
	if ink.Min.X < 90 || ink.Min.X > 100 {
		t.Errorf("text starts at x=%d, want flush with 90", ink.Min.X)
	}
	if ink.Min.Y < 120 || ink.Min.Y > 160 {
		t.Errorf("text starts at y=%d, want just below 120", ink.Min.Y)
	}
	if ink.Max.Y > 120+100 {
		t.Errorf("text extends to y=%d, want a single line", ink.Max.Y)
	}
}

func TestTextWrapsToMaxWidth(t *testing.T) {
	block := titleBlock()
	block.Style.MaxWidth = 200
	in := template.RenderInput{Texts: map[string]string{"title": "Hello World Wide Web"}}

	img, err := ComposeCover(context.Background(), in, textDef(block))
	if err != nil {
		t.Fatalf("ComposeCover: %v", err)
	}
	ink := inkBounds(img, isDark)
	if ink.Max.X > 90+200+8 {
		t.Errorf("ink reaches x=%d, beyond the 200px wrap width", ink.Max.X)
	}
	if ink.Dy() < 100 {
		t.Errorf("ink height %d, want several lines", ink.Dy())
	}
}

func TestTextAlignment(t *testing.T) {
	face := testFace(t, 40)
	box := template.Box{X: 100, Y: 0, W: 400, H: 100}
	w := measure(face, "Hi")

	tests := []struct {
		align template.HAlign
		want  int
	}{
		{template.AlignLeft, 100},
		{template.AlignCenter, 100 + (400-w)/2},
		{template.AlignRight, 100 + 400 - w},
	}
	for _, tt := range tests {
		t.Run(string(tt.align), func(t *testing.T) {
			l := layoutText(face, box, template.TextStyle{Align: tt.align, LineSpacing: 1}, "Hi")
			if len(l.xs) != 1 || l.xs[0] != tt.want {
				t.Errorf("x = %v, want %d", l.xs, tt.want)
			}
		})
	}
}

func TestLineAdvance(t *testing.T) {
	face := testFace(t, 40)
	style := template.TextStyle{LineSpacing: 2, Align: template.AlignLeft}
	l := layoutText(face, template.Box{X: 0, Y: 10, W: 10, H: 10}, style, "one two three")
	if len(l.lines) != 3 {
		t.Fatalf("lines = %q, want 3", l.lines)
	}
	want := int(float64(LineHeight(face)) * 2)
	for i, y := range l.ys {
		if y != 10+i*want {
			t.Errorf("line %d at y=%d, want %d", i, y, 10+i*want)
		}
	}
}

func TestTextColorOverride(t *testing.T) {
	isRed := func(c color.NRGBA) bool { return c.R > 200 && c.G < 60 && c.B < 60 }

	tests := []struct {
		name     string
		override string
		wantRed  bool
	}{
		{"hex override", "#ff0000", true},
		{"non hex ignored", "red", false},
		{"no override", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := titleBlock()
			def := textDef(block)
			in := template.RenderInput{
				Texts:      map[string]string{"title": "Hello"},
				TextColors: map[string]string{"title": tt.override},
			}
			img, err := ComposeCover(context.Background(), in, def)
			if err != nil {
				t.Fatal(err)
			}
			if got := !inkBounds(img, isRed).Empty(); got != tt.wantRed {
				t.Errorf("red ink = %v, want %v", got, tt.wantRed)
			}
			if def.Texts[0].Style.Color != "#000000" {
				t.Error("template style was modified")
			}
		})
	}
}

func TestTextStroke(t *testing.T) {
	block := titleBlock()
	block.Style.Color = "#ff0000"
	block.Style.StrokeWidth = 3
	block.Style.StrokeFill = "#00ff00"
	in := template.RenderInput{Texts: map[string]string{"title": "Hello"}}

	img, err := ComposeCover(context.Background(), in, textDef(block))
	if err != nil {
		t.Fatal(err)
	}
	stroke := inkBounds(img, func(c color.NRGBA) bool { return c.G > 200 && c.R < 60 && c.B < 60 })
	fill := inkBounds(img, func(c color.NRGBA) bool { return c.R > 200 && c.G < 60 && c.B < 60 })
	if stroke.Empty() || fill.Empty() {
		t.Fatalf("stroke=%v fill=%v, want both drawn", stroke, fill)
	}
	if !fill.In(stroke) {
		t.Errorf("fill %v should lie within stroke %v", fill, stroke)
	}
}

func TestTextShadow(t *testing.T) {
	for _, blur := range []int{0, 2} {
		block := titleBlock()
		block.Style.Color = "#ff0000"
		block.Style.Shadow = &template.Shadow{OffsetX: 6, OffsetY: 6, Color: "#0000ff", Blur: blur}
		in := template.RenderInput{Texts: map[string]string{"title": "Hello"}}

		img, err := ComposeCover(context.Background(), in, textDef(block))
		if err != nil {
			t.Fatal(err)
		}
		shadow := inkBounds(img, func(c color.NRGBA) bool { return c.B > 150 && c.R < 150 })
		fill := inkBounds(img, func(c color.NRGBA) bool { return c.R > 200 && c.B < 60 })
		if shadow.Empty() {
			t.Fatalf("blur %d: no shadow drawn", blur)
		}
		if shadow.Max.X <= fill.Max.X || shadow.Max.Y <= fill.Max.Y {
			t.Errorf("blur %d: shadow %v should extend past fill %v", blur, shadow, fill)
		}
	}
}

func TestTextOverflowNotClipped(t *testing.T) {
	block := titleBlock()
	block.Box.H = 10
	block.Style.MaxWidth = 150
	in := template.RenderInput{Texts: map[string]string{"title": "one two three four five six"}}

	img, err := ComposeCover(context.Background(), in, textDef(block))
	if err != nil {
		t.Fatal(err)
	}
	if ink := inkBounds(img, isDark); ink.Max.Y < 120+200 {
		t.Errorf("ink ends at y=%d, overflow lines should still be drawn", ink.Max.Y)
	}
}

func TestDilate(t *testing.T) {
	mask := image.NewAlpha(image.Rect(-2, -2, 3, 3))
	mask.SetAlpha(0, 0, color.Alpha{A: 200})

	out := dilate(mask, 2)
	if got := out.Bounds(); got != image.Rect(-4, -4, 5, 5) {
		t.Errorf("bounds = %v", got)
	}
	for _, p := range []image.Point{{0, 0}, {2, 0}, {0, -2}, {1, 1}} {
		if a := out.AlphaAt(p.X, p.Y).A; a != 200 {
			t.Errorf("alpha at %v = %d, want 200", p, a)
		}
	}
	if a := out.AlphaAt(2, 2).A; a != 0 {
		t.Errorf("corner (2,2) alpha = %d, want 0 outside the disk", a)
	}
}

func TestWrapTextUsesInkWidth(t *testing.T) {
	face := testFace(t, 64)
	const content = "Hello World"

	b, _ := font.BoundString(face, content)
	ink := (b.Max.X - b.Min.X).Ceil()
	if got := measure(face, content); got != ink {
		t.Fatalf("measure = %d, want ink width %d", got, ink)
	}
	if lines := WrapText(face, content, ink); len(lines) != 1 {
		t.Errorf("content exactly as wide as its ink wrapped into %q", lines)
	}
	if lines := WrapText(face, content, ink-1); len(lines) != 2 {
		t.Errorf("content one pixel too wide gave %q, want two lines", lines)
	}
}
