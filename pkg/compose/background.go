package compose

import (
	"context"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/coverkit/pkg/geometry"
	"github.com/matzehuels/coverkit/pkg/gradient"
	"github.com/matzehuels/coverkit/pkg/observability"
	"github.com/matzehuels/coverkit/pkg/template"
)

// drawBackground builds the base canvas for def.
//
// Gradient backgrounds start transparent, color backgrounds are a solid fill
// scaled by opacity, and everything else starts opaque white. An override
// image (overridePath) or, failing that, a kind=image template file is then
// cover-fitted and composited on top. Unreadable overlays are skipped.
func drawBackground(ctx context.Context, def *template.Definition, overridePath string) *image.NRGBA {
	w, h := max(def.Width, 1), max(def.Height, 1)
	bg := def.Background

	var canvas *image.NRGBA
	switch bg.Kind {
	case template.KindGradient:
		canvas = image.NewNRGBA(image.Rect(0, 0, w, h))
		if !gradient.Paint(canvas, gradientSpec(bg)) {
			observability.Render().OnFallback(ctx, "background", "", "gradient needs at least two stops")
		}
	case template.KindColor:
		canvas = imaging.New(w, h, withOpacity(colorOr(bg.Value, white), bg.Opacity))
	default:
		canvas = imaging.New(w, h, white)
	}

	if overridePath != "" {
		img, err := LoadImage(overridePath)
		if err == nil {
			over(canvas, coverFit(img, w, h), image.Point{})
			return canvas
		}
		observability.Render().OnFallback(ctx, "background", "", err.Error())
	}
	if bg.Kind == template.KindImage && bg.Value != "" {
		if _, err := os.Stat(bg.Value); err != nil {
			observability.Render().OnFallback(ctx, "background", "", "image not found: "+bg.Value)
			return canvas
		}
		if img, err := LoadImage(bg.Value); err == nil {
			over(canvas, coverFit(img, w, h), image.Point{})
		} else {
			observability.Render().OnFallback(ctx, "background", "", err.Error())
		}
	}
	return canvas
}

func coverFit(img *image.NRGBA, w, h int) *image.NRGBA {
	return fitImage(img, image.Pt(w, h), geometry.FitCover, geometry.AlignCenter, geometry.AlignCenter)
}

func gradientSpec(bg template.BackgroundConfig) gradient.Spec {
	spec := gradient.Spec{
		Kind:    gradient.Linear,
		Angle:   bg.Angle,
		CenterX: bg.Center[0],
		CenterY: bg.Center[1],
		Opacity: bg.Opacity,
	}
	if bg.GradientType == template.GradientRadial {
		spec.Kind = gradient.Radial
	}
	for _, s := range bg.Stops {
		spec.Stops = append(spec.Stops, gradient.Stop{Color: colorOr(s.Color, white), Position: s.Position})
	}
	return spec
}
