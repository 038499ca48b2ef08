package autocal

import (
	"math"

	"github.com/erh/autocal/calib"
)

// optState is the live optimization state: one instance per run, replaced
// (not mutated in place) every iteration.
type optState struct {
	p    calib.PMatrix
	cost float64
	grad calib.PMatrix
}

type lineSearchInfo struct {
	stepSize   float64
	t          float64
	iterations int
	rejected   bool
}

// backTrackingLineSearch proposes a step along the normalized descent
// direction and shrinks it under an Armijo-style sufficient-decrease test.
// If no step passes the test, the input state is returned unchanged; callers
// detect "no progress" through the unchanged matrix and cost.
func (o *Optimizer) backTrackingLineSearch(curr optState) (optState, lineSearchInfo) {
	info := lineSearchInfo{rejected: true}

	gradNorm := curr.grad.Norm()
	if gradNorm == 0 {
		return curr, info
	}

	// rescale the 12 parameters into comparable units before choosing a
	// direction; they span focal-pixel and unitless ranges
	normGrad := curr.grad.Scale(1 / gradNorm).DivElem(o.params.NormalizeMat)
	normGradNorm := normGrad.Norm()
	if normGradNorm == 0 {
		return curr, info
	}
	unitGrad := normGrad.Scale(1 / normGradNorm)

	t := -o.params.ControlParam * normGrad.Dot(unitGrad)
	stepSize := o.params.MaxStepSize * normGradNorm / unitGrad.Norm()
	info.t = t

	oldModel, err := calib.Decompose(curr.p, o.color.model)
	if err != nil {
		o.logger.Debugw("line search: current matrix failed to decompose", "error", err)
		return curr, info
	}
	uvOld := o.uvMap(oldModel, curr.p)

	next := curr
	evaluate := func(step float64) (float64, error) {
		next.p = curr.p.Add(unitGrad.Scale(-step))
		newModel, err := calib.Decompose(next.p, o.color.model)
		if err != nil {
			return 0, err
		}
		uvNew := o.uvMap(newModel, next.p)
		next.cost = o.costFn(o.depth.vertices, newModel, uvNew)
		return o.costPerVertexDiff(uvOld, uvNew), nil
	}

	diff, err := evaluate(stepSize)
	if err != nil {
		o.logger.Debugw("line search: candidate failed to decompose", "error", err)
		return curr, info
	}

	for diff >= stepSize*t &&
		math.Abs(stepSize) > o.params.MinStepSize &&
		info.iterations < o.params.MaxBackTrackIters {
		info.iterations++
		o.logger.Debugf("    back tracking line search cost= %.10f", next.cost)
		stepSize = o.params.Tau * stepSize
		diff, err = evaluate(stepSize)
		if err != nil {
			o.logger.Debugw("line search: candidate failed to decompose", "error", err)
			return curr, info
		}
	}
	info.stepSize = stepSize

	if diff >= stepSize*t {
		// sufficient decrease never achieved; refuse the step
		return curr, info
	}
	info.rejected = false
	return next, info
}
