package autocal

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rdk/rimage/transform"

	"github.com/erh/autocal/calib"
)

// optimizeP runs the inner gradient descent over the 12 projection
// parameters until the update or the cost change falls under its threshold.
// It returns the final state, the model decomposed from it with the color
// focal lengths restored, the focal-corrected depth intrinsics, and the
// number of iterations taken.
func (o *Optimizer) optimizeP(start optState, model *calib.Model, cycle int) (optState, *calib.Model, transform.PinholeCameraIntrinsics, int) {
	curr := start
	rgbModel := model
	n := 0

	for {
		curr.cost, curr.grad, _ = o.costAndGrad(rgbModel, curr.p)
		o.logger.Debugf("    ------> cycle %d iteration %d: cost= %.10f", cycle, n, curr.cost)

		next, info := o.backTrackingLineSearch(curr)
		o.emitIteration(IterationData{
			Cycle:          cycle,
			Iteration:      n,
			P:              curr.p,
			Cost:           curr.cost,
			Gradient:       curr.grad,
			UV:             o.uvMap(rgbModel, curr.p),
			NextP:          next.p,
			NextCost:       next.cost,
			StepSize:       info.stepSize,
			T:              info.t,
			BackTrackIters: info.iterations,
			StepRejected:   info.rejected,
		})

		if next.p.Sub(curr.p).Norm() < o.params.MinDeltaThreshold {
			curr = next
			break
		}
		if math.Abs(next.cost-curr.cost) < o.params.MinCostDeltaThreshold {
			curr = next
			break
		}
		n++
		if n >= o.params.MaxInnerIters {
			curr = next
			break
		}
		curr = next

		m, err := calib.Decompose(curr.p, o.color.model)
		if err != nil {
			o.logger.Debugw("inner loop: matrix failed to decompose, stopping", "error", err)
			break
		}
		rgbModel = m
	}
	if n == 0 {
		o.logger.Info("calibration not necessary, stopping")
	}

	newModel, err := calib.Decompose(curr.p, o.color.model)
	if err != nil {
		o.logger.Warnw("final matrix failed to decompose, keeping previous model", "error", err)
		return curr, rgbModel, o.depth.intrinsics, n
	}
	origModel, err := calib.Decompose(start.p, o.color.model)
	if err != nil {
		o.logger.Warnw("start matrix failed to decompose, keeping previous model", "error", err)
		return curr, rgbModel, o.depth.intrinsics, n
	}

	// the focal drift belongs to the depth unit, not the color camera: move
	// it into the depth intrinsics and pin the color focals back
	newZK := o.depth.intrinsics
	newZK.Fx = newZK.Fx / newModel.Intrinsics.Fx * origModel.Intrinsics.Fx
	newZK.Fy = newZK.Fy / newModel.Intrinsics.Fy * origModel.Intrinsics.Fy
	newModel.Intrinsics.Fx = origModel.Intrinsics.Fx
	newModel.Intrinsics.Fy = origModel.Intrinsics.Fy
	curr.p = newModel.ProjectionMatrix()

	return curr, newModel, newZK, n
}

// Optimize runs the full calibration: one inner descent, then repeated
// cycles of distortion-model conversion plus re-optimization, each cycle
// kept only if it strictly lowers the cost. It returns the iteration count
// of the first cycle; zero means the input calibration was already good.
func (o *Optimizer) Optimize() (int, error) {
	if o.color.model == nil {
		return 0, fmt.Errorf("color frames not set")
	}
	if o.ir.frame == nil {
		return 0, fmt.Errorf("ir frame not set")
	}
	if o.depth.frame == nil {
		return 0, fmt.Errorf("depth frame not set")
	}

	o.depth.origVertices = append([]r3.Vector(nil), o.depth.vertices...)

	state := optState{p: o.color.model.ProjectionMatrix()}
	state, model, zK, firstIters := o.optimizeP(state, o.color.model, 0)
	o.lastIters = firstIters

	bestDSM := o.depth.dsm
	bestCost := state.cost
	acceptedVertices := o.depth.vertices

	for cycle := 1; cycle < o.params.MaxCycles; cycle++ {
		dsmCand, newVertices, err := o.converter.Convert(
			o.depth.intrinsics, zK, bestDSM, o.depth.valid, o.depth.units)
		if err != nil {
			o.logger.Warnw("distortion model conversion failed, stopping cycles", "error", err)
			break
		}
		if len(newVertices) != len(o.depth.vertices) {
			o.logger.Warnw("converter returned mismatched vertex count, stopping cycles",
				"got", len(newVertices), "want", len(o.depth.vertices))
			break
		}
		o.emitCycle(CycleData{
			Cycle:        cycle,
			DSMCandidate: dsmCand,
			Vertices:     newVertices,
			OrigVertices: o.depth.origVertices,
		})

		o.depth.vertices = newVertices
		candState, candModel, candZK, candIters := o.optimizeP(state, model, cycle)
		if candState.cost >= bestCost {
			o.logger.Debugf("cycle %d cost %.10f did not improve on %.10f, stopping", cycle, candState.cost, bestCost)
			o.depth.vertices = acceptedVertices
			break
		}

		state, model, zK = candState, candModel, candZK
		o.lastIters = candIters
		bestDSM = dsmCand
		bestCost = candState.cost
		acceptedVertices = newVertices
	}

	o.finalModel = model
	o.finalDSM = clipDSM(o.depth.dsm, bestDSM, o.params.MaxScalingStep)
	o.finalCost = bestCost
	o.logger.Infof("calibration done, cost= %.10f iterations= %d", bestCost, firstIters)
	return firstIters, nil
}
