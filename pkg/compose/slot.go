package compose

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/coverkit/pkg/geometry"
	"github.com/matzehuels/coverkit/pkg/template"
)

// fitImage scales src into a target of the given size. Cover crops the
// overflow according to the alignment; contain pads with transparency.
func fitImage(src *image.NRGBA, target image.Point, mode geometry.FitMode, ax, ay geometry.Align) *image.NRGBA {
	p := geometry.FitTransform(src.Bounds().Size(), target, mode, ax, ay)
	resized := imaging.Resize(src, p.Scaled.X, p.Scaled.Y, imaging.Lanczos)

	tw, th := max(target.X, 1), max(target.Y, 1)
	if mode == geometry.FitContain {
		return imaging.Paste(imaging.New(tw, th, color.NRGBA{}), resized, p.Offset)
	}
	return imaging.Crop(resized, image.Rect(p.Offset.X, p.Offset.Y, p.Offset.X+tw, p.Offset.Y+th))
}

// slotLayer builds the unrotated slot-sized layer: content fitted into the
// padded box, masked with the slot's corner radii, and offset by the padding.
func slotLayer(src *image.NRGBA, s template.Slot) *image.NRGBA {
	w, h := max(s.Box.W, 1), max(s.Box.H, 1)
	inner := image.Pt(max(1, w-2*s.Padding), max(1, h-2*s.Padding))

	fitted := fitImage(src, inner, fitMode(s.Fit), alignX(s.AlignX), alignY(s.AlignY))
	if !s.Radius.IsZero() {
		c := s.Radius.Corners()
		mask := geometry.RoundedMask(inner, [4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])})
		geometry.ApplyMask(fitted, mask)
	}

	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	over(layer, fitted, image.Pt(s.Padding, s.Padding))
	return layer
}

// placeSlot composites src into slot s on canvas, warping it when the slot is
// rotated.
func (c *Composer) placeSlot(canvas, src *image.NRGBA, s template.Slot) error {
	layer := slotLayer(src, s)
	if !s.Rotated() {
		over(canvas, layer, image.Pt(s.Box.X, s.Box.Y))
		return nil
	}
	warped, offset, err := warpLayer(layer, s.RotateX, s.RotateY, s.Rotation, c.cameraFactor)
	if err != nil {
		return err
	}
	over(canvas, warped, image.Pt(s.Box.X+offset.X, s.Box.Y+offset.Y))
	return nil
}

func fitMode(f template.Fit) geometry.FitMode {
	if f == template.FitContain {
		return geometry.FitContain
	}
	return geometry.FitCover
}

func alignX(a template.HAlign) geometry.Align {
	switch a {
	case template.AlignLeft:
		return geometry.AlignStart
	case template.AlignRight:
		return geometry.AlignEnd
	default:
		return geometry.AlignCenter
	}
}

func alignY(a template.VAlign) geometry.Align {
	switch a {
	case template.AlignTop:
		return geometry.AlignStart
	case template.AlignBottom:
		return geometry.AlignEnd
	default:
		return geometry.AlignCenter
	}
}
