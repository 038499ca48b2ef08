package imgutils

import "math"

// BlurPropagate spreads edge intensity outward with a decaying two-pass max
// propagation (a cheap inverse distance transform), then blends the result
// with the original edge map: alpha*edges + (1-alpha)*propagated.
//
// The propagated field is smooth and slopes toward edges everywhere, which is
// what makes it usable as a differentiable landscape; a thresholded edge mask
// has no usable gradient away from the edges themselves.
func BlurPropagate(edges *Field, gamma, alpha float64) *Field {
	w, h := edges.width, edges.height
	res := edges.Clone()

	// forward raster: every cell sees its left and upper neighbors,
	// which were already updated this pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case y == 0 && x == 0:
			case y == 0:
				res.Set(x, y, math.Max(res.At(x, y), res.At(x-1, y)*gamma))
			case x == 0:
				res.Set(x, y, math.Max(res.At(x, y), res.At(x, y-1)*gamma))
			default:
				res.Set(x, y, math.Max(res.At(x, y),
					math.Max(res.At(x-1, y)*gamma, res.At(x, y-1)*gamma)))
			}
		}
	}

	// reverse raster: right and lower neighbors
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			switch {
			case y == h-1 && x == w-1:
			case y == h-1:
				res.Set(x, y, math.Max(res.At(x, y), res.At(x+1, y)*gamma))
			case x == w-1:
				res.Set(x, y, math.Max(res.At(x, y), res.At(x, y+1)*gamma))
			default:
				res.Set(x, y, math.Max(res.At(x, y),
					math.Max(res.At(x+1, y)*gamma, res.At(x, y+1)*gamma)))
			}
		}
	}

	for i := range res.data {
		res.data[i] = alpha*edges.data[i] + (1-alpha)*res.data[i]
	}
	return res
}
