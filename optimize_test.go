package autocal

import (
	"math"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage/transform"
	"go.viam.com/test"

	"github.com/erh/autocal/calib"
)

func initialCost(o *Optimizer) float64 {
	p := o.color.model.ProjectionMatrix()
	return o.costFn(o.depth.vertices, o.color.model, o.uvMap(o.color.model, p))
}

func TestOptimizeAlignedScene(t *testing.T) {
	o := synthScene(t, 0)

	// depth edges already land on the color edges
	test.That(t, initialCost(o), test.ShouldAlmostEqual, 0, 1e-6)

	_, err := o.Optimize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Cost(), test.ShouldBeLessThan, 1)
	test.That(t, o.Calibration(), test.ShouldNotBeNil)
}

func TestOptimizeImprovesMisalignedScene(t *testing.T) {
	o := synthScene(t, 0.01) // 1.4px shift on the color image
	sink := &recordingSink{}
	o.SetTraceSink(sink)

	before := initialCost(o)
	test.That(t, before, test.ShouldBeGreaterThan, 1)

	iters, err := o.Optimize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, iters, test.ShouldBeGreaterThan, 0)
	test.That(t, math.IsNaN(o.Cost()), test.ShouldBeFalse)

	// near-complete recovery, not just any improvement
	test.That(t, o.Cost(), test.ShouldBeLessThan, 1)

	// the edge vertices land back on the color edge; the depth plane is
	// flat, so the projected column is the observable ground truth
	m := o.Calibration()
	uv := o.uvMap(m, m.ProjectionMatrix())
	for _, pt := range uv {
		test.That(t, math.Abs(pt.X-63.5), test.ShouldBeLessThan, 0.75)
	}

	// cost never rises within a cycle
	for _, costs := range sink.costsByCycle {
		for i := 1; i < len(costs); i++ {
			test.That(t, costs[i], test.ShouldBeLessThanOrEqualTo, costs[i-1]+1e-6)
		}
	}

	// optimized extrinsics still decompose to a sane model
	test.That(t, m.CheckValid(), test.ShouldBeNil)
	test.That(t, m.Intrinsics.Fx, test.ShouldAlmostEqual, 140, 1e-6)
	test.That(t, m.Intrinsics.Fy, test.ShouldAlmostEqual, 140, 1e-6)
}

func TestOptimizeNoEdges(t *testing.T) {
	ir := make([]uint16, sceneDepthSize*sceneDepthSize)
	depth := make([]uint16, sceneDepthSize*sceneDepthSize)
	for i := range depth {
		depth[i] = sceneDepth
	}
	rgb := make([]byte, sceneColorSize*sceneColorSize*2)

	model := &calib.Model{
		Intrinsics: &transform.PinholeCameraIntrinsics{
			Width: sceneColorSize, Height: sceneColorSize,
			Fx: 140, Fy: 140, Ppx: 63.5, Ppy: 63.5,
		},
		Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
	}
	zIntr := &transform.PinholeCameraIntrinsics{
		Width: sceneDepthSize, Height: sceneDepthSize,
		Fx: 70, Fy: 70, Ppx: 31.5, Ppy: 31.5,
	}

	o := NewOptimizer(DefaultParams(), logging.NewTestLogger(t))
	test.That(t, o.SetColorFrames(rgb, rgb, model), test.ShouldBeNil)
	test.That(t, o.SetIRFrame(ir, sceneDepthSize, sceneDepthSize), test.ShouldBeNil)
	test.That(t, o.SetDepthFrame(depth, zIntr, DefaultDSMParams(), 0.001), test.ShouldBeNil)

	test.That(t, len(o.ValidEdges()), test.ShouldEqual, 0)

	iters, err := o.Optimize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, iters, test.ShouldEqual, 0)
	test.That(t, o.Cost(), test.ShouldEqual, 0)
	test.That(t, o.Calibration(), test.ShouldNotBeNil)
}

func TestOptimizeRequiresFrames(t *testing.T) {
	o := NewOptimizer(DefaultParams(), logging.NewTestLogger(t))
	_, err := o.Optimize()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLineSearchZeroGradient(t *testing.T) {
	o := synthScene(t, 0)

	curr := optState{p: o.color.model.ProjectionMatrix()}
	next, info := o.backTrackingLineSearch(curr)
	test.That(t, info.rejected, test.ShouldBeTrue)
	test.That(t, next.p, test.ShouldResemble, curr.p)
}

func TestLineSearchNeverIncreasesCost(t *testing.T) {
	o := synthScene(t, 0.01)

	curr := optState{p: o.color.model.ProjectionMatrix()}
	curr.cost, curr.grad, _ = o.costAndGrad(o.color.model, curr.p)

	next, info := o.backTrackingLineSearch(curr)
	if info.rejected {
		test.That(t, next.p, test.ShouldResemble, curr.p)
		return
	}
	test.That(t, next.cost, test.ShouldBeLessThan, curr.cost)
}

func TestLineSearchAcceptsDescentStep(t *testing.T) {
	o := synthScene(t, 0.01)

	// a misaligned scene with a nonzero gradient must yield an accepted
	// step; the decrease metric and its threshold share the summed scale
	curr := optState{p: o.color.model.ProjectionMatrix()}
	curr.cost, curr.grad, _ = o.costAndGrad(o.color.model, curr.p)
	test.That(t, curr.grad.IsZero(), test.ShouldBeFalse)

	next, info := o.backTrackingLineSearch(curr)
	test.That(t, info.rejected, test.ShouldBeFalse)
	test.That(t, next.cost, test.ShouldBeLessThan, curr.cost)
}

type recordingSink struct {
	iterations   int
	cycles       []CycleData
	costsByCycle map[int][]float64
}

func (s *recordingSink) OnIteration(d IterationData) error {
	s.iterations++
	if s.costsByCycle == nil {
		s.costsByCycle = map[int][]float64{}
	}
	s.costsByCycle[d.Cycle] = append(s.costsByCycle[d.Cycle], d.Cost)
	return nil
}

func (s *recordingSink) OnCycle(d CycleData) error {
	s.cycles = append(s.cycles, d)
	return nil
}

func TestTraceSinkSeesIterations(t *testing.T) {
	o := synthScene(t, 0.01)
	sink := &recordingSink{}
	o.SetTraceSink(sink)

	_, err := o.Optimize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.iterations, test.ShouldBeGreaterThan, 0)

	// cycle snapshots carry the candidate set alongside the initial
	// reconstruction
	test.That(t, len(sink.cycles), test.ShouldBeGreaterThan, 0)
	for _, c := range sink.cycles {
		test.That(t, len(c.OrigVertices), test.ShouldEqual, len(o.depth.origVertices))
		test.That(t, len(c.Vertices), test.ShouldEqual, len(c.OrigVertices))
	}
}

func TestCostWeighting(t *testing.T) {
	o := synthScene(t, 0)
	uv := o.uvMap(o.color.model, o.color.model.ProjectionMatrix())
	costs := o.costPerVertex(uv)
	test.That(t, len(costs), test.ShouldEqual, len(o.depth.vertices))
	for _, c := range costs {
		test.That(t, c, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, c, test.ShouldBeLessThanOrEqualTo, o.color.idtMax)
	}
}

func TestDefaultParamsResolutionOverride(t *testing.T) {
	p := DefaultParams()
	test.That(t, p.GradIRThreshold, test.ShouldEqual, 3.5)

	p.adjustForDepthResolution(1024, 768)
	test.That(t, p.GradIRThreshold, test.ShouldEqual, 2.5)

	p = DefaultParams()
	p.adjustForDepthResolution(640, 480)
	test.That(t, p.GradIRThreshold, test.ShouldEqual, 3.5)
}
