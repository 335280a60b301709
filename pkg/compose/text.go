package compose

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/coverkit/pkg/template"
)

// lineHeightSample is measured to derive the line height of a face.
const lineHeightSample = "Ag"

var defaultShadowColor = color.NRGBA{A: 0x88}

// WrapText splits content into lines no wider than maxWidth using greedy word
// wrapping. A single word wider than maxWidth gets a line of its own. Empty
// content yields one empty line.
func WrapText(face font.Face, content string, maxWidth int) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(content) {
		trial := strings.TrimSpace(current + " " + word)
		if measure(face, trial) <= maxWidth {
			current = trial
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// measure returns the ink width of s in whole pixels. Side bearings of the
// first and last glyph are not counted.
func measure(face font.Face, s string) int {
	b, _ := font.BoundString(face, s)
	return (b.Max.X - b.Min.X).Ceil()
}

// LineHeight returns the ink height of a reference sample in face.
func LineHeight(face font.Face) int {
	b, _ := font.BoundString(face, lineHeightSample)
	return (b.Max.Y - b.Min.Y).Ceil()
}

// textLayout is the computed placement of one text block.
type textLayout struct {
	lines   []string
	xs      []int // left edge of each line
	ys      []int // top of each line
	advance int
	ascent  int
}

func layoutText(face font.Face, box template.Box, style template.TextStyle, content string) textLayout {
	maxWidth := box.W
	if style.MaxWidth > 0 {
		maxWidth = style.MaxWidth
	}
	l := textLayout{
		lines:   WrapText(face, content, maxWidth),
		advance: int(float64(LineHeight(face)) * style.LineSpacing),
		ascent:  face.Metrics().Ascent.Ceil(),
	}
	y := box.Y
	for _, line := range l.lines {
		w := measure(face, line)
		x := float64(box.X)
		switch style.Align {
		case template.AlignCenter:
			x += float64(box.W-w) / 2
		case template.AlignRight:
			x += float64(box.W - w)
		}
		l.xs = append(l.xs, int(x))
		l.ys = append(l.ys, y)
		y += l.advance
	}
	return l
}

// drawText renders content into box on canvas. Lines that overflow the box
// height are still drawn.
func drawText(canvas *image.NRGBA, face font.Face, box template.Box, style template.TextStyle, content string) {
	l := layoutText(face, box, style, content)
	fill := colorOr(style.Color, black)

	for i, line := range l.lines {
		if line == "" {
			continue
		}
		mask := glyphMask(face, line)
		baseline := image.Pt(l.xs[i], l.ys[i]+l.ascent)

		if sh := style.Shadow; sh != nil {
			drawShadow(canvas, mask, baseline.Add(image.Pt(sh.OffsetX, sh.OffsetY)), colorOr(sh.Color, defaultShadowColor), sh.Blur)
		}
		if style.StrokeWidth > 0 && style.StrokeFill != "" {
			overMask(canvas, dilate(mask, style.StrokeWidth), baseline, colorOr(style.StrokeFill, black))
		}
		overMask(canvas, mask, baseline, fill)
	}
}

// glyphMask rasterizes s into an alpha mask whose coordinate origin is the
// start of the baseline.
func glyphMask(face font.Face, s string) *image.Alpha {
	b, _ := font.BoundString(face, s)
	r := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	mask := image.NewAlpha(r)
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: fixed.Point26_6{}}
	d.DrawString(s)
	return mask
}

// dilate grows mask by a disk of the given radius, producing the stroke
// footprint.
func dilate(mask *image.Alpha, radius int) *image.Alpha {
	var offsets []image.Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius+radius {
				offsets = append(offsets, image.Pt(dx, dy))
			}
		}
	}

	src := mask.Bounds()
	out := image.NewAlpha(src.Inset(-radius))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			a := mask.Pix[mask.PixOffset(x, y)]
			if a == 0 {
				continue
			}
			for _, o := range offsets {
				i := out.PixOffset(x+o.X, y+o.Y)
				if out.Pix[i] < a {
					out.Pix[i] = a
				}
			}
		}
	}
	return out
}

// drawShadow paints the glyph mask in c at origin. A positive blur renders the
// shadow on a padded local layer and applies a Gaussian blur of that sigma
// before compositing.
func drawShadow(canvas *image.NRGBA, mask *image.Alpha, origin image.Point, c color.NRGBA, blur int) {
	if blur <= 0 {
		overMask(canvas, mask, origin, c)
		return
	}
	pad := 3 * blur
	mb := mask.Bounds()
	r := mb.Inset(-pad)
	layer := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	overMask(layer, mask, image.Pt(pad-mb.Min.X, pad-mb.Min.Y), c)
	blurred := imaging.Blur(layer, float64(blur))
	over(canvas, blurred, origin.Add(r.Min))
}
