package geometry

import (
	"math"

	"github.com/matzehuels/coverkit/pkg/errors"
)

const singularPivot = 1e-12

// Homography holds the eight coefficients (a..h) of a projective transform:
//
//	u = (a*x + b*y + c) / (g*x + h*y + 1)
//	v = (d*x + e*y + f) / (g*x + h*y + 1)
type Homography [8]float64

// Map applies the transform to (x, y).
func (m Homography) Map(x, y float64) (u, v float64) {
	w := m[6]*x + m[7]*y + 1
	if w == 0 {
		w = math.SmallestNonzeroFloat64
	}
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

// SolveHomography returns the transform that maps each dst corner onto the
// corresponding src corner. It is used for inverse mapping: every output pixel
// in dst space looks up its color at the mapped position in src space.
//
// A singular system (collinear or coincident corners) yields a
// DEGENERATE_GEOMETRY error.
func SolveHomography(src, dst Quad) (Homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := dst[i].X, dst[i].Y
		u, v := src[i].X, src[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	// Gaussian elimination with partial pivoting on the augmented matrix.
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < singularPivot {
			return Homography{}, errors.New(errors.ErrCodeDegenerateGeometry,
				"homography is singular for quad %v", dst)
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var m Homography
	for r := 7; r >= 0; r-- {
		sum := a[r][8]
		for c := r + 1; c < 8; c++ {
			sum -= a[r][c] * m[c]
		}
		m[r] = sum / a[r][r]
	}
	for _, c := range m {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Homography{}, errors.New(errors.ErrCodeDegenerateGeometry,
				"homography has non-finite coefficients for quad %v", dst)
		}
	}
	return m, nil
}
