package geometry

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// MaskSupersample is the factor at which rounded masks are rasterized before
// being filtered down to the target size.
const MaskSupersample = 4

// Corner indices for per-corner radii.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// RoundedMask returns an anti-aliased rounded-rectangle alpha mask of the given
// size. radii holds per-corner radii in top-left, top-right, bottom-right,
// bottom-left order. Each radius is clamped to half the shorter side, so a
// radius of at least min(w,h)/2 on every corner of a square yields an inscribed
// circle.
//
// When every radius is <= 0 the mask is fully opaque.
func RoundedMask(size image.Point, radii [4]float64) *image.Alpha {
	w, h := max(size.X, 1), max(size.Y, 1)
	mask := image.NewAlpha(image.Rect(0, 0, w, h))

	limit := math.Min(float64(w), float64(h)) / 2
	rounded := false
	for i, r := range radii {
		radii[i] = math.Max(0, math.Min(r, limit))
		if radii[i] > 0 {
			rounded = true
		}
	}
	if !rounded {
		for i := range mask.Pix {
			mask.Pix[i] = 0xff
		}
		return mask
	}

	const k = MaskSupersample
	dc := gg.NewContext(w*k, h*k)
	drawRoundedRect(dc, float64(w*k), float64(h*k), [4]float64{
		radii[TopLeft] * k, radii[TopRight] * k, radii[BottomRight] * k, radii[BottomLeft] * k,
	})
	dc.SetRGBA(1, 1, 1, 1)
	dc.Fill()

	small := imaging.Resize(dc.Image(), w, h, imaging.Lanczos)
	for y := 0; y < h; y++ {
		src := small.Pix[y*small.Stride : y*small.Stride+w*4]
		dst := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := range dst {
			dst[x] = src[x*4+3]
		}
	}
	return mask
}

// drawRoundedRect traces a rounded rectangle with independent corner radii.
// Zero-radius corners are drawn square.
func drawRoundedRect(dc *gg.Context, w, h float64, r [4]float64) {
	tl, tr, br, bl := r[TopLeft], r[TopRight], r[BottomRight], r[BottomLeft]

	dc.NewSubPath()
	dc.MoveTo(tl, 0)
	dc.LineTo(w-tr, 0)
	if tr > 0 {
		dc.DrawArc(w-tr, tr, tr, gg.Radians(270), gg.Radians(360))
	}
	dc.LineTo(w, h-br)
	if br > 0 {
		dc.DrawArc(w-br, h-br, br, gg.Radians(0), gg.Radians(90))
	}
	dc.LineTo(bl, h)
	if bl > 0 {
		dc.DrawArc(bl, h-bl, bl, gg.Radians(90), gg.Radians(180))
	}
	dc.LineTo(0, tl)
	if tl > 0 {
		dc.DrawArc(tl, tl, tl, gg.Radians(180), gg.Radians(270))
	}
	dc.ClosePath()
}

// ApplyMask multiplies the alpha channel of img by mask in place.
// img and mask must share the same size; extra pixels are left untouched.
func ApplyMask(img *image.NRGBA, mask *image.Alpha) {
	b := img.Bounds()
	w := min(b.Dx(), mask.Rect.Dx())
	h := min(b.Dy(), mask.Rect.Dy())
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		m := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := 0; x < w; x++ {
			a := uint32(row[x*4+3]) * uint32(m[x])
			row[x*4+3] = uint8((a + 127) / 255)
		}
	}
}
