// Package calib holds the color-camera calibration model, the 3x4 projection
// matrix derived from it, and the projection math shared by edge localization
// and every optimizer iteration.
package calib

import (
	"gonum.org/v1/gonum/floats"
)

// PMatrix is a 3x4 projection matrix stored row-major as 12 free parameters.
// It is a plain value type; all operations return copies.
type PMatrix [12]float64

func (p PMatrix) Add(o PMatrix) PMatrix {
	var res PMatrix
	for i := range p {
		res[i] = p[i] + o[i]
	}
	return res
}

func (p PMatrix) Sub(o PMatrix) PMatrix {
	var res PMatrix
	for i := range p {
		res[i] = p[i] - o[i]
	}
	return res
}

func (p PMatrix) Scale(s float64) PMatrix {
	var res PMatrix
	for i := range p {
		res[i] = p[i] * s
	}
	return res
}

// DivElem divides elementwise by o.
func (p PMatrix) DivElem(o PMatrix) PMatrix {
	var res PMatrix
	for i := range p {
		res[i] = p[i] / o[i]
	}
	return res
}

func (p PMatrix) Dot(o PMatrix) float64 {
	return floats.Dot(p[:], o[:])
}

// Norm is the Frobenius norm over the 12 entries.
func (p PMatrix) Norm() float64 {
	return floats.Norm(p[:], 2)
}

// IsZero reports whether every entry is exactly zero.
func (p PMatrix) IsZero() bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}
