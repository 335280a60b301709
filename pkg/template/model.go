package template

import (
	"fmt"
	"image"
	"strings"
)

// Fit selects how slot content is scaled into its box.
type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
)

// HAlign is a horizontal alignment.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign is a vertical alignment.
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "center"
	AlignBottom VAlign = "bottom"
)

// BackgroundKind selects how the base canvas is produced. Unknown kinds are
// preserved as-is and render as opaque white.
type BackgroundKind string

const (
	KindColor    BackgroundKind = "color"
	KindImage    BackgroundKind = "image"
	KindGradient BackgroundKind = "gradient"
)

// GradientType selects the gradient shape.
type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

// Box is a rectangle in template pixel space. It may extend beyond the canvas.
type Box struct {
	X, Y, W, H int
}

// Rect converts b to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Definition is a parsed template. It is treated as immutable once loaded.
type Definition struct {
	Key         string
	Name        string
	Description string // optional markdown
	Width       int
	Height      int
	Background  BackgroundConfig
	Slots       []Slot
	Texts       []TextBlock
}

// Size returns the canvas size.
func (d *Definition) Size() image.Point {
	return image.Pt(d.Width, d.Height)
}

// SlotKeys returns slot keys in template order.
func (d *Definition) SlotKeys() []string {
	keys := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		keys[i] = s.Key
	}
	return keys
}

// TextKeys returns text block keys in template order.
func (d *Definition) TextKeys() []string {
	keys := make([]string, len(d.Texts))
	for i, t := range d.Texts {
		keys[i] = t.Key
	}
	return keys
}

// BackgroundConfig describes the base canvas.
type BackgroundConfig struct {
	Kind    BackgroundKind
	Value   string // hex color or image path, depending on Kind
	Opacity float64

	GradientType GradientType
	Stops        []GradientStop
	Angle        float64    // linear only; 0 = top to bottom
	Center       [2]float64 // radial only; fractions of the canvas size
}

// HasGradient reports whether any gradient setting is present.
func (b BackgroundConfig) HasGradient() bool {
	return b.Kind == KindGradient || b.GradientType != "" || len(b.Stops) > 0
}

// GradientStop is one color stop of a gradient.
type GradientStop struct {
	Color    string
	Position float64
}

// Slot is a rectangular region that receives a caller-supplied image.
type Slot struct {
	Key      string
	Box      Box
	Radius   CornerRadius
	Fit      Fit
	Padding  int
	AlignX   HAlign
	AlignY   VAlign
	Rotation float64 // in-plane degrees, positive = clockwise
	RotateX  float64 // out-of-plane tilt, degrees
	RotateY  float64 // out-of-plane tilt, degrees
}

// Rotated reports whether the slot needs the perspective warp path.
func (s Slot) Rotated() bool {
	return s.Rotation != 0 || s.RotateX != 0 || s.RotateY != 0
}

type radiusKind uint8

const (
	radiusUniform radiusKind = iota
	radiusPerCorner
)

// CornerRadius is either a uniform radius or four independent per-corner
// radii (top-left, top-right, bottom-right, bottom-left). The variant is fixed
// when the template is parsed. The zero value is Uniform(0).
type CornerRadius struct {
	kind radiusKind
	px   [4]int
}

// Uniform returns a radius applied to every corner.
func Uniform(px int) CornerRadius {
	return CornerRadius{kind: radiusUniform, px: [4]int{px, px, px, px}}
}

// PerCorner returns independent radii in clockwise order from top-left.
func PerCorner(tl, tr, br, bl int) CornerRadius {
	return CornerRadius{kind: radiusPerCorner, px: [4]int{tl, tr, br, bl}}
}

// IsPerCorner reports whether r came from a per-corner list.
func (r CornerRadius) IsPerCorner() bool { return r.kind == radiusPerCorner }

// Corners returns the radius of each corner.
func (r CornerRadius) Corners() [4]int { return r.px }

// Value returns the uniform radius, or the top-left radius for per-corner values.
func (r CornerRadius) Value() int { return r.px[0] }

// IsZero reports whether no corner is rounded.
func (r CornerRadius) IsZero() bool {
	for _, v := range r.px {
		if v > 0 {
			return false
		}
	}
	return true
}

func (r CornerRadius) String() string {
	if r.IsPerCorner() {
		return fmt.Sprintf("%d/%d/%d/%d", r.px[0], r.px[1], r.px[2], r.px[3])
	}
	return fmt.Sprintf("%d", r.px[0])
}

// TextBlock is a box that receives a caller-supplied string.
type TextBlock struct {
	Key   string
	Box   Box
	Style TextStyle
}

// EffectiveStyle returns the block's style with an optional color override
// applied. Overrides that are not hex colors are ignored. The block itself is
// never modified.
func (t TextBlock) EffectiveStyle(colorOverride string) TextStyle {
	style := t.Style
	if c := strings.TrimSpace(colorOverride); strings.HasPrefix(c, "#") {
		style.Color = c
	}
	return style
}

// TextStyle controls text rendering.
type TextStyle struct {
	Font        string // path or font name; empty selects the built-in face
	Size        int
	Color       string
	Align       HAlign
	MaxWidth    int // 0 uses the box width
	LineSpacing float64
	StrokeWidth int
	StrokeFill  string
	Shadow      *Shadow
}

// Shadow is a drop shadow drawn beneath each text line.
type Shadow struct {
	OffsetX, OffsetY int
	Color            string
	Blur             int
}

// RenderInput holds the per-render content bindings. Maps are keyed by the
// template's slot and text keys; unknown keys are ignored.
type RenderInput struct {
	TemplateKey    string            `json:"template_key"`
	OutputName     string            `json:"output_name"`
	BackgroundPath string            `json:"background_path,omitempty"`
	Texts          map[string]string `json:"texts,omitempty"`
	TextColors     map[string]string `json:"text_colors,omitempty"`
	SlotPaths      map[string]string `json:"slot_paths,omitempty"`
}

// Warning is a non-fatal problem found while parsing a template.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return w.Field + ": " + w.Message
}
