package autocal

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/erh/autocal/calib"
	"github.com/erh/autocal/imgutils"
)

// CostFunc scores a trial projection: lower is better. uv holds the
// projected color-image coordinate of every valid vertex.
type CostFunc func(vertices []r3.Vector, model *calib.Model, uv []r2.Point) float64

// uvMap projects every valid vertex through a trial projection matrix.
// Vertices that cannot be projected get an out-of-range coordinate so the
// samplers exclude them.
func (o *Optimizer) uvMap(model *calib.Model, p calib.PMatrix) []r2.Point {
	uv := make([]r2.Point, len(o.depth.vertices))
	for i, v := range o.depth.vertices {
		pt, ok := calib.ProjectThroughP(p, model.Intrinsics, model.Distortion, v)
		if !ok {
			pt = r2.Point{X: -1, Y: -1}
		}
		uv[i] = pt
	}
	return uv
}

// costPerVertex charges each vertex the gap between the best achievable
// edge response and the smoothed edge field at its projection. A vertex
// sitting exactly on a color edge costs zero; one projected off the image
// pays the maximum.
func (o *Optimizer) costPerVertex(uv []r2.Point) []float64 {
	costs := make([]float64, len(uv))
	for i, pt := range uv {
		s := o.color.idt.Bilinear(pt.X, pt.Y)
		if s == imgutils.OutOfRange {
			costs[i] = o.color.idtMax
			continue
		}
		costs[i] = o.color.idtMax - s
	}
	return costs
}

// edgeMismatchCost is the default cost: the weight-averaged per-vertex cost.
func (o *Optimizer) edgeMismatchCost(_ []r3.Vector, _ *calib.Model, uv []r2.Point) float64 {
	costs := o.costPerVertex(uv)
	var sum, wsum float64
	for i, c := range costs {
		sum += o.depth.weights[i] * c
		wsum += o.depth.weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// costPerVertexDiff is the weighted sum of per-vertex cost changes between
// two UV maps. A sum, not an average: the line search compares it against a
// sufficient-decrease threshold built from the unaveraged gradient norms.
func (o *Optimizer) costPerVertexDiff(uvOld, uvNew []r2.Point) float64 {
	oldCosts := o.costPerVertex(uvOld)
	newCosts := o.costPerVertex(uvNew)
	var sum float64
	for i := range oldCosts {
		sum += o.depth.weights[i] * (newCosts[i] - oldCosts[i])
	}
	return sum
}

// costAndGrad evaluates the scalar cost and its analytic gradient with
// respect to the 12 projection parameters at p.
//
// Per-vertex partials go through the chain rule of the perspective divide,
// with the radial distortion factor treated as locally constant. Only the
// first 8 gradient entries carry a contribution; the last projection row is
// held fixed.
func (o *Optimizer) costAndGrad(model *calib.Model, p calib.PMatrix) (float64, calib.PMatrix, []r2.Point) {
	uv := o.uvMap(model, p)
	cost := o.costFn(o.depth.vertices, model, uv)

	var sums calib.PMatrix
	nValid := 0
	intr := model.Intrinsics

	for i, v := range o.depth.vertices {
		gx := o.color.idtX.Bilinear(uv[i].X, uv[i].Y)
		gy := o.color.idtY.Bilinear(uv[i].X, uv[i].Y)
		if gx == imgutils.OutOfRange || gy == imgutils.OutOfRange {
			continue
		}
		nValid++

		x1 := p[0]*v.X + p[1]*v.Y + p[2]*v.Z + p[3]
		y1 := p[4]*v.X + p[5]*v.Y + p[6]*v.Z + p[7]
		z1 := p[8]*v.X + p[9]*v.Y + p[10]*v.Z + p[11]
		if z1 == 0 {
			continue
		}
		xn := (x1/z1 - intr.Ppx) / intr.Fx
		yn := (y1/z1 - intr.Ppy) / intr.Fy
		rc := calib.RadialScale(model.Distortion, xn, yn)

		hom := [4]float64{v.X, v.Y, v.Z, 1}
		w := o.depth.weights[i]
		for j := 0; j < 4; j++ {
			du := rc * hom[j] / z1
			dv := rc * hom[j] / z1
			duz := -rc * x1 * hom[j] / (z1 * z1)
			dvz := -rc * y1 * hom[j] / (z1 * z1)
			// cost falls as the sampled field rises, hence the sign flip
			sums[j] += -w * gx * du
			sums[4+j] += -w * gy * dv
			sums[8+j] += -w * (gx*duz + gy*dvz)
		}
	}

	var grad calib.PMatrix
	if nValid > 0 {
		for j := 0; j < 8; j++ {
			grad[j] = sums[j] / float64(nValid)
		}
	}
	return cost, grad, uv
}
