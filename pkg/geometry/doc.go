// Package geometry holds the pure arithmetic behind cover composition.
//
// It has no knowledge of templates or files. Callers translate template
// settings (fit mode, alignment names, corner radii, rotation angles) into the
// plain values used here:
//
//   - [FitTransform] computes the scaled size and crop/pad offset for cover
//     and contain fitting.
//   - [RoundedMask] produces an anti-aliased rounded-rectangle alpha mask by
//     supersampling.
//   - [ProjectRotatedQuad] rotates a rectangle in 3D about its center and
//     projects it back to 2D with a pinhole camera.
//   - [SolveHomography] computes the projective transform used to resample a
//     rectangle into a projected quadrilateral.
package geometry
