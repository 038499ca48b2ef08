package imgutils

import "math"

// 3x3 Sobel kernels, normalized by 8 at application time. sobelX responds to
// horizontal intensity change, sobelY to vertical.
var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

func convolve3x3(f *Field, kernel [3][3]float64) *Field {
	res := NewField(f.width, f.height)
	for y := 1; y < f.height-1; y++ {
		for x := 1; x < f.width-1; x++ {
			sum := 0.0
			for ky := 0; ky < 3; ky++ {
				for kx := 0; kx < 3; kx++ {
					sum += f.At(x+kx-1, y+ky-1) * kernel[ky][kx]
				}
			}
			res.Set(x, y, sum/8)
		}
	}
	return res
}

// SobelX computes the horizontal gradient component of the field.
func SobelX(f *Field) *Field {
	return convolve3x3(f, sobelX)
}

// SobelY computes the vertical gradient component of the field.
func SobelY(f *Field) *Field {
	return convolve3x3(f, sobelY)
}

// Magnitude computes the per-pixel Euclidean norm of two gradient components.
func Magnitude(gx, gy *Field) *Field {
	res := NewField(gx.width, gx.height)
	for i := range res.data {
		res.data[i] = math.Hypot(gx.data[i], gy.data[i])
	}
	return res
}

// ZeroMargin zeroes the second row/column from each edge, suppressing
// convolution artifacts next to the border ring.
func ZeroMargin(f *Field) {
	for x := 0; x < f.width; x++ {
		f.Set(x, 1, 0)
		f.Set(x, f.height-2, 0)
	}
	for y := 0; y < f.height; y++ {
		f.Set(1, y, 0)
		f.Set(f.width-2, y, 0)
	}
}
