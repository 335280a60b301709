package geometry

import (
	"image"
	"math"
)

// FitMode selects how a source image is fitted into a target box.
type FitMode string

const (
	// FitCover scales the source to fill the target and crops the excess.
	FitCover FitMode = "cover"
	// FitContain scales the source to fit inside the target and pads the remainder.
	FitContain FitMode = "contain"
)

// Align positions content along one axis when cropping or padding.
type Align int

const (
	AlignCenter Align = iota
	AlignStart        // left / top
	AlignEnd          // right / bottom
)

// Placement is the result of [FitTransform].
//
// For FitCover, Offset is the top-left corner of the crop window inside the
// scaled image. For FitContain, Offset is where the scaled image is pasted
// inside the (transparent) target.
type Placement struct {
	Scaled image.Point
	Offset image.Point
}

// FitTransform computes the scaled size and crop/pad offset that fit a source
// of size src into a target of size target.
//
// The scale factor is computed in floating point and the scaled size is
// truncated, with a floor of 1px per axis. Under FitCover the scaled size is
// additionally kept at least as large as the target so truncation can never
// leave an uncovered row or column. Under FitContain it never exceeds the target.
func FitTransform(src, target image.Point, mode FitMode, alignX, alignY Align) Placement {
	iw, ih := max(src.X, 1), max(src.Y, 1)
	tw, th := max(target.X, 1), max(target.Y, 1)

	sx := float64(tw) / float64(iw)
	sy := float64(th) / float64(ih)

	var scale float64
	if mode == FitContain {
		scale = math.Min(sx, sy)
	} else {
		scale = math.Max(sx, sy)
	}

	w := max(1, int(float64(iw)*scale))
	h := max(1, int(float64(ih)*scale))

	if mode == FitContain {
		w, h = min(w, tw), min(h, th)
		return Placement{
			Scaled: image.Pt(w, h),
			Offset: image.Pt(alignOffset(tw-w, alignX), alignOffset(th-h, alignY)),
		}
	}

	w, h = max(w, tw), max(h, th)
	return Placement{
		Scaled: image.Pt(w, h),
		Offset: image.Pt(alignOffset(w-tw, alignX), alignOffset(h-th, alignY)),
	}
}

// alignOffset distributes slack pixels according to a.
func alignOffset(slack int, a Align) int {
	switch a {
	case AlignStart:
		return 0
	case AlignEnd:
		return slack
	default:
		return slack / 2
	}
}
