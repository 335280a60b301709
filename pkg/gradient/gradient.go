// Package gradient synthesizes multi-stop linear and radial color fields.
//
// Rendering happens in two whole-canvas passes. [Field] computes a scalar
// position in [0,1] for every pixel, then [Paint] walks the field once per
// adjacent stop pair and writes the interpolated colors. Pixels before the
// first stop or after the last stop take that stop's color verbatim.
package gradient

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// Kind selects the shape of the position field.
type Kind string

const (
	Linear Kind = "linear"
	Radial Kind = "radial"
)

// Stop is one color stop. Only the RGB channels of Color are used; alpha comes
// from [Spec.Opacity].
type Stop struct {
	Color    color.NRGBA
	Position float64
}

// Spec describes a gradient fill.
type Spec struct {
	Kind  Kind
	Stops []Stop

	// Angle is the direction of a linear gradient in degrees. 0 runs top to
	// bottom, 90 runs left to right.
	Angle float64

	// CenterX and CenterY locate a radial gradient's origin as fractions of
	// the canvas size.
	CenterX, CenterY float64

	// Opacity in [0,1] becomes the alpha channel of every stop.
	Opacity float64
}

// Field returns the per-pixel gradient position for a w×h canvas in row-major
// order. Values are clamped to [0,1].
//
// The linear field projects each pixel's offset from the canvas center onto
// the gradient direction and rescales [-halfDiag, halfDiag] to [0,1]. The radial
// field is the distance from the center divided by halfDiag.
func Field(w, h int, s Spec) []float32 {
	field := make([]float32, w*h)
	halfDiag := math.Hypot(float64(w), float64(h)) / 2
	if halfDiag == 0 {
		return field
	}

	if s.Kind == Radial {
		cx, cy := float64(w)*s.CenterX, float64(h)*s.CenterY
		for y := 0; y < h; y++ {
			dy := float64(y) - cy
			row := field[y*w : (y+1)*w]
			for x := range row {
				row[x] = clamp01(math.Hypot(float64(x)-cx, dy) / halfDiag)
			}
		}
		return field
	}

	sinA, cosA := math.Sincos(s.Angle * math.Pi / 180)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		dy := (float64(y) - cy) * cosA
		row := field[y*w : (y+1)*w]
		for x := range row {
			dist := (float64(x)-cx)*sinA + dy
			row[x] = clamp01((dist/halfDiag + 1) / 2)
		}
	}
	return field
}

// Paint fills dst with the gradient. dst pixels are overwritten, not blended.
// With fewer than two stops dst is left untouched and Paint reports false.
func Paint(dst *image.NRGBA, s Spec) bool {
	if len(s.Stops) < 2 {
		return false
	}
	stops := make([]Stop, len(s.Stops))
	copy(stops, s.Stops)
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Position < stops[j].Position })

	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	field := Field(w, h, s)
	alpha := float64(uint8(255 * math.Max(0, math.Min(s.Opacity, 1))))

	for i := 0; i+1 < len(stops); i++ {
		p1, p2 := stops[i].Position, stops[i+1].Position
		if p2 <= p1 {
			continue
		}
		c1, c2 := channels(stops[i].Color, alpha), channels(stops[i+1].Color, alpha)
		span := p2 - p1
		fill(dst, field, w, h, func(p float64) bool { return p >= p1 && p <= p2 }, func(p float64) [4]uint8 {
			t := clampF((p-p1)/span, 0, 1)
			var out [4]uint8
			for ch := range out {
				out[ch] = uint8(c1[ch] + (c2[ch]-c1[ch])*t)
			}
			return out
		})
	}

	first, last := stops[0], stops[len(stops)-1]
	firstC, lastC := toBytes(channels(first.Color, alpha)), toBytes(channels(last.Color, alpha))
	fill(dst, field, w, h, func(p float64) bool { return p < first.Position }, func(float64) [4]uint8 { return firstC })
	fill(dst, field, w, h, func(p float64) bool { return p > last.Position }, func(float64) [4]uint8 { return lastC })
	return true
}

// fill writes colorAt(p) to every pixel whose field value satisfies in.
func fill(dst *image.NRGBA, field []float32, w, h int, in func(float64) bool, colorAt func(float64) [4]uint8) {
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		pos := field[y*w : (y+1)*w]
		for x, p := range pos {
			pf := float64(p)
			if !in(pf) {
				continue
			}
			c := colorAt(pf)
			copy(row[x*4:x*4+4], c[:])
		}
	}
}

func channels(c color.NRGBA, alpha float64) [4]float64 {
	return [4]float64{float64(c.R), float64(c.G), float64(c.B), alpha}
}

func toBytes(c [4]float64) [4]uint8 {
	return [4]uint8{uint8(c[0]), uint8(c[1]), uint8(c[2]), uint8(c[3])}
}

func clamp01(v float64) float32 {
	return float32(clampF(v, 0, 1))
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
