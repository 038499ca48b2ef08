package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Decompose recovers a calibration model from a projection matrix. The
// reference model supplies everything P cannot encode: image resolution and
// the distortion coefficients. K is zero-skew, so the factorization is
// closed-form; the rotation is re-orthonormalized through an SVD so repeated
// compose/decompose round trips stay on the rotation manifold.
func Decompose(p PMatrix, ref *Model) (*Model, error) {
	m3 := [3]float64{p[8], p[9], p[10]}
	scale := math.Sqrt(m3[0]*m3[0] + m3[1]*m3[1] + m3[2]*m3[2])
	if scale == 0 {
		return nil, fmt.Errorf("projection matrix has a zero third row, cannot decompose")
	}
	q := p.Scale(1 / scale)

	r3row := [3]float64{q[8], q[9], q[10]}
	ppx := q[0]*r3row[0] + q[1]*r3row[1] + q[2]*r3row[2]
	ppy := q[4]*r3row[0] + q[5]*r3row[1] + q[6]*r3row[2]

	var r1, r2 [3]float64
	for j := 0; j < 3; j++ {
		r1[j] = q[j] - ppx*r3row[j]
		r2[j] = q[4+j] - ppy*r3row[j]
	}
	fx := math.Sqrt(r1[0]*r1[0] + r1[1]*r1[1] + r1[2]*r1[2])
	fy := math.Sqrt(r2[0]*r2[0] + r2[1]*r2[1] + r2[2]*r2[2])
	if fx <= 0 || fy <= 0 {
		return nil, fmt.Errorf("projection matrix decomposes to non-positive focal lengths (%f, %f)", fx, fy)
	}
	for j := 0; j < 3; j++ {
		r1[j] /= fx
		r2[j] /= fy
	}

	t3 := q[11]
	t1 := (q[3] - ppx*t3) / fx
	t2 := (q[7] - ppy*t3) / fy

	rot, err := orthonormalize([9]float64{
		r1[0], r1[1], r1[2],
		r2[0], r2[1], r2[2],
		r3row[0], r3row[1], r3row[2],
	})
	if err != nil {
		return nil, err
	}

	out := ref.Clone()
	out.Intrinsics.Fx = fx
	out.Intrinsics.Fy = fy
	out.Intrinsics.Ppx = ppx
	out.Intrinsics.Ppy = ppy
	out.Rotation = rot
	out.Translation = [3]float64{t1, t2, t3}
	return out, nil
}

// orthonormalize projects a near-rotation onto the closest true rotation,
// R = U*V^T from the SVD. When that product is a reflection, the column of
// U holding the smallest singular value is negated; gonum sorts singular
// values in descending order, so that is the last column.
func orthonormalize(r [9]float64) ([9]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, r[:]), mat.SVDThin); !ok {
		return r, fmt.Errorf("failed to factorize rotation matrix")
	}
	var u, v, res mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	res.Mul(&u, v.T())
	if mat.Det(&res) < 0 {
		var flipped mat.Dense
		flipped.Mul(&u, mat.NewDiagDense(3, []float64{1, 1, -1}))
		res.Mul(&flipped, v.T())
	}
	var out [9]float64
	copy(out[:], res.RawMatrix().Data)
	return out, nil
}
