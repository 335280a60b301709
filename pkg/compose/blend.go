package compose

import (
	"image"
	"image/color"
)

// over composites src onto dst with its top-left corner at at, using
// non-premultiplied source-over. Pixels falling outside dst are clipped.
func over(dst, src *image.NRGBA, at image.Point) {
	sb := src.Bounds()
	r := sb.Sub(sb.Min).Add(at).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		sy := y - at.Y + sb.Min.Y
		for x := r.Min.X; x < r.Max.X; x++ {
			sx := x - at.X + sb.Min.X
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			blendPixel(dst.Pix[di:di+4:di+4], src.Pix[si], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3])
		}
	}
}

// overMask paints c through mask onto dst. Mask pixel (mx, my) lands on dst
// pixel (mx+at.X, my+at.Y); the mask's own bounds may have any origin.
func overMask(dst *image.NRGBA, mask *image.Alpha, at image.Point, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	mb := mask.Bounds()
	r := mb.Add(at).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m := mask.Pix[mask.PixOffset(x-at.X, y-at.Y)]
			if m == 0 {
				continue
			}
			a := uint8((uint32(m)*uint32(c.A) + 127) / 255)
			di := dst.PixOffset(x, y)
			blendPixel(dst.Pix[di:di+4:di+4], c.R, c.G, c.B, a)
		}
	}
}

// blendPixel applies source-over of (r,g,b,a) onto the 4-byte pixel d.
func blendPixel(d []uint8, r, g, b, a uint8) {
	switch {
	case a == 0:
		return
	case a == 0xff || d[3] == 0:
		d[0], d[1], d[2], d[3] = r, g, b, a
		return
	}
	sa := uint32(a)
	da := uint32(d[3])
	// Weights are scaled by 255*255.
	sw := sa * 255
	dw := da * (255 - sa)
	outA := sw + dw
	d[0] = uint8((uint32(r)*sw + uint32(d[0])*dw + outA/2) / outA)
	d[1] = uint8((uint32(g)*sw + uint32(d[1])*dw + outA/2) / outA)
	d[2] = uint8((uint32(b)*sw + uint32(d[2])*dw + outA/2) / outA)
	d[3] = uint8((outA + 127) / 255)
}
