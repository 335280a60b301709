// Package pkg provides the libraries behind coverkit, a template-driven
// cover image compositor.
//
// # Overview
//
// A cover is a fixed-size raster built from a template (background, image
// slots, text blocks) and per-render content (texts, slot images, color
// overrides). The pkg directory is organized by layer:
//
//  1. [geometry], [gradient] - pure raster math (fit, masks, projection, homography, gradient fields)
//  2. [compose] - the cover compositor and its stage machine
//  3. [template], [batch] - the data model, template stores and CSV binding
//  4. [pipeline] - caching render front-end, file output and batch runs
//  5. [cache], [config], [api] - infrastructure and the HTTP surface
//
// # Architecture
//
// The typical data flow:
//
//	Template (JSON/YAML file or MongoDB) + RenderInput (flags, CSV row, HTTP body)
//	         ↓
//	    [pipeline] Runner (cache lookup by content hash)
//	         ↓
//	    [compose] background → slots → texts
//	         ↓
//	    PNG file, preview or HTTP response
//
// # Quick Start
//
// Render one cover with the built-in template:
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/coverkit/pkg/compose"
//	    "github.com/matzehuels/coverkit/pkg/template"
//	)
//
//	in := template.RenderInput{
//	    TemplateKey: "default",
//	    OutputName:  "cover.png",
//	    Texts:       map[string]string{"title": "Spring Sale"},
//	    SlotPaths:   map[string]string{"screenshot-1": "shot.png"},
//	}
//	err := compose.RenderToFile(context.Background(), in, template.Default(), "out/cover.png")
//
// With caching, a template store and batch support, go through a
// [pipeline.Runner] instead:
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	res, err := runner.RenderToFile(ctx, def, in, pipeline.Options{OutputDir: "out"})
//
// [geometry]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/geometry
// [gradient]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/gradient
// [compose]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/compose
// [template]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/template
// [batch]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/batch
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/config
// [api]: https://pkg.go.dev/github.com/matzehuels/coverkit/pkg/api
package pkg
