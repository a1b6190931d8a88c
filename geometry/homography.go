package geometry

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when point correspondences do not determine a
// projective transform, for example when three points are collinear.
var ErrSingular = errors.New("singular homography")

// Homography is a 3x3 projective transform stored row-major. H[8] is 1 for
// transforms produced by SolveHomography.
type Homography [9]float64

// Identity is the transform that maps every point onto itself.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Apply maps p through the transform. The second return value is false when
// p maps to infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the transform mapping destination points back to the
// source.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); err != nil {
		return Homography{}, errors.Wrap(ErrSingular, err.Error())
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if out[8] != 0 {
		for i := range out {
			out[i] /= out[8]
		}
	}
	return out, nil
}

// SolveHomography computes the projective transform mapping each src point
// onto the dst point with the same index.
//
// With H[8] fixed to 1 every correspondence contributes two linear equations
//
//	x*h0 + y*h1 + h2 - x*u*h6 - y*u*h7 = u
//	x*h3 + y*h4 + h5 - x*v*h6 - y*v*h7 = v
//
// so four correspondences give an 8x8 system.
func SolveHomography(src, dst [4]Point2D) (Homography, error) {
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -x*u)
		A.Set(i*2, 7, -y*u)
		B.SetVec(i*2, u)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -x*v)
		A.Set(i*2+1, 7, -y*v)
		B.SetVec(i*2+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return Homography{}, errors.Wrap(ErrSingular, err.Error())
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return h, nil
}
