package geometry

import "math"

const (
	// DefaultCameraFactor scales the pinhole camera distance relative to the
	// longer side of the projected rectangle.
	DefaultCameraFactor = 2.5

	// MaxTilt bounds out-of-plane rotation in degrees. Beyond it the plane is
	// nearly edge-on and the perspective divide becomes unstable.
	MaxTilt = 89.0

	degenerateDenom = 1e-9
)

// Point is a 2D point in floating point pixel space.
type Point struct {
	X, Y float64
}

// Quad is a quadrilateral with corners ordered top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// RectQuad returns the axis-aligned quad covering (0,0)-(w,h).
func RectQuad(w, h float64) Quad {
	return Quad{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// Bounds returns the axis-aligned bounding box of q.
func (q Quad) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = q[0].X, q[0].Y
	maxX, maxY = minX, minY
	for _, p := range q[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Translate returns q shifted by (dx, dy).
func (q Quad) Translate(dx, dy float64) Quad {
	for i := range q {
		q[i].X += dx
		q[i].Y += dy
	}
	return q
}

// Scale returns q with every coordinate multiplied by k.
func (q Quad) Scale(k float64) Quad {
	for i := range q {
		q[i].X *= k
		q[i].Y *= k
	}
	return q
}

// ProjectRotatedQuad rotates a w×h rectangle about its center and projects the
// result back onto the image plane.
//
// Axes are X right, Y down, Z toward the viewer. The rotation order is rz
// (in-plane, positive = clockwise on screen), then rx, then ry. rx and ry are
// clamped to ±[MaxTilt]. The camera sits at distance
// d = max(1, cameraFactor*max(w,h)); a non-positive cameraFactor selects
// [DefaultCameraFactor].
//
// The returned corners correspond to the source corners (0,0), (w,0), (w,h),
// (0,h) and live in the same coordinate frame as the source rectangle, so zero
// rotation returns [RectQuad](w, h).
func ProjectRotatedQuad(w, h, rx, ry, rz, cameraFactor float64) Quad {
	if cameraFactor <= 0 {
		cameraFactor = DefaultCameraFactor
	}
	cx, cy := w/2, h/2

	rx = clamp(rx, -MaxTilt, MaxTilt)
	ry = clamp(ry, -MaxTilt, MaxTilt)

	sinX, cosX := math.Sincos(rx * math.Pi / 180)
	sinY, cosY := math.Sincos(ry * math.Pi / 180)
	sinZ, cosZ := math.Sincos(rz * math.Pi / 180)

	d := math.Max(1, cameraFactor*math.Max(w, h))

	corners := [4][2]float64{{-cx, -cy}, {cx, -cy}, {cx, cy}, {-cx, cy}}
	var q Quad
	for i, c := range corners {
		x, y, z := c[0], c[1], 0.0

		x, y = x*cosZ-y*sinZ, x*sinZ+y*cosZ
		y, z = y*cosX-z*sinX, y*sinX+z*cosX
		x, z = x*cosY+z*sinY, -x*sinY+z*cosY

		denom := d - z
		if math.Abs(denom) < degenerateDenom {
			denom = math.Copysign(math.SmallestNonzeroFloat64, denom)
		}
		s := d / denom
		q[i] = Point{X: x*s + cx, Y: y*s + cy}
	}
	return q
}

// IsFlat reports whether the rotation angles leave the rectangle untouched.
func IsFlat(rx, ry, rz float64) bool {
	return rx == 0 && ry == 0 && rz == 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
