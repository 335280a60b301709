package compose

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/coverkit/pkg/geometry"
)

// warpSupersample is the factor the slot layer is upscaled by before
// resampling through the homography.
const warpSupersample = 2

// spanEpsilon absorbs floating point noise in projected bounds so a quarter
// turn of a square keeps its exact size.
const spanEpsilon = 1e-6

// warpLayer renders layer rotated in 3D and projected back to 2D. It returns
// the warped image and the offset of its top-left corner relative to the
// layer's original top-left corner.
func warpLayer(layer *image.NRGBA, rx, ry, rz, cameraFactor float64) (*image.NRGBA, image.Point, error) {
	w, h := layer.Bounds().Dx(), layer.Bounds().Dy()
	quad := geometry.ProjectRotatedQuad(float64(w), float64(h), rx, ry, rz, cameraFactor)
	minX, minY, maxX, maxY := quad.Bounds()

	outW := max(1, int(math.Ceil(maxX-minX-spanEpsilon)))
	outH := max(1, int(math.Ceil(maxY-minY-spanEpsilon)))

	const k = warpSupersample
	hi := imaging.Resize(layer, w*k, h*k, imaging.Lanczos)
	dst := quad.Translate(-minX, -minY).Scale(k)
	src := geometry.RectQuad(float64(w*k), float64(h*k))

	m, err := geometry.SolveHomography(src, dst)
	if err != nil {
		return nil, image.Point{}, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, outW*k, outH*k))
	resample(out, hi, m)
	warped := imaging.Resize(out, outW, outH, imaging.Lanczos)
	return warped, image.Pt(int(math.Round(minX)), int(math.Round(minY))), nil
}

// resample fills dst by mapping each pixel center through m into src and
// sampling with a Catmull-Rom bicubic filter. Points mapping outside src stay
// transparent.
func resample(dst, src *image.NRGBA, m geometry.Homography) {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	fw, fh := float64(sw), float64(sh)

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			u, v := m.Map(float64(x)+0.5, float64(y)+0.5)
			if !(u >= 0 && v >= 0 && u < fw && v < fh) {
				continue
			}
			r, g, b, a := bicubic(src, u-0.5, v-0.5)
			i := dst.PixOffset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = r, g, b, a
		}
	}
}

// bicubic samples src at continuous pixel coordinates (fx, fy), where integer
// values address pixel centers. Channels are filtered premultiplied and
// neighbors outside the image are clamped to the edge.
func bicubic(src *image.NRGBA, fx, fy float64) (r, g, b, a uint8) {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)
	wx := catmullRom(tx)
	wy := catmullRom(ty)
	maxX, maxY := src.Bounds().Dx()-1, src.Bounds().Dy()-1

	var sr, sg, sb, sa float64
	for j := 0; j < 4; j++ {
		yy := clampInt(y0-1+j, 0, maxY)
		for i := 0; i < 4; i++ {
			xx := clampInt(x0-1+i, 0, maxX)
			wgt := wx[i] * wy[j]
			if wgt == 0 {
				continue
			}
			p := src.Pix[src.PixOffset(xx, yy):]
			pa := float64(p[3]) * wgt
			sr += float64(p[0]) * pa
			sg += float64(p[1]) * pa
			sb += float64(p[2]) * pa
			sa += pa
		}
	}
	if sa <= 0 {
		return 0, 0, 0, 0
	}
	return clampByte(sr / sa), clampByte(sg / sa), clampByte(sb / sa), clampByte(sa)
}

// catmullRom returns the four Catmull-Rom weights for fractional offset t.
func catmullRom(t float64) [4]float64 {
	t2, t3 := t*t, t*t*t
	return [4]float64{
		(-t3 + 2*t2 - t) / 2,
		(3*t3 - 5*t2 + 2) / 2,
		(-3*t3 + 4*t2 + t) / 2,
		(t3 - t2) / 2,
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
