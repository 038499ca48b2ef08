package autocal

import (
	"testing"

	"go.viam.com/test"
)

func TestQuantizeDirection8(t *testing.T) {
	cases := []struct {
		gx, gy float64
		want   int
	}{
		{1, 0, 0},
		{1, 1, 1},
		{0, 1, 2},
		{-1, 1, 3},
		{-1, 0, 4},
		{-1, -1, 5},
		{0, -1, 6},
		{1, -1, 7},
	}
	for _, c := range cases {
		test.That(t, quantizeDirection8(c.gx, c.gy), test.ShouldEqual, c.want)
	}

	// bins split halfway between the axes
	test.That(t, quantizeDirection8(1, 0.404), test.ShouldEqual, 0)  // 22.0 deg
	test.That(t, quantizeDirection8(1, 0.424), test.ShouldEqual, 1)  // 23.0 deg
	test.That(t, quantizeDirection8(1, -0.01), test.ShouldEqual, 0)  // wraps near 360
}

func TestDir4Fold(t *testing.T) {
	for dir := 0; dir < 8; dir++ {
		e := EdgeRecord{Dir: dir}
		test.That(t, e.Dir4(), test.ShouldEqual, dir%4)
	}
}

func TestParabolicOffset(t *testing.T) {
	// symmetric peak stays centered
	test.That(t, parabolicOffset(0, 1, 0), test.ShouldEqual, 0)

	// samples of -(x-0.3)^2 recover the true peak
	f := func(x float64) float64 { return -(x - 0.3) * (x - 0.3) }
	test.That(t, parabolicOffset(f(-1), f(0), f(1)), test.ShouldAlmostEqual, 0.3)

	// flat curvature has no refinement
	test.That(t, parabolicOffset(1, 1, 1), test.ShouldEqual, 0)
}

func TestSectionIndex(t *testing.T) {
	test.That(t, sectionIndex(0, 0, 64, 64, 2, 2), test.ShouldEqual, 0)
	test.That(t, sectionIndex(63, 0, 64, 64, 2, 2), test.ShouldEqual, 1)
	test.That(t, sectionIndex(0, 63, 64, 64, 2, 2), test.ShouldEqual, 2)
	test.That(t, sectionIndex(63, 63, 64, 64, 2, 2), test.ShouldEqual, 3)
	test.That(t, sectionIndex(31, 31, 64, 64, 2, 2), test.ShouldEqual, 0)
	test.That(t, sectionIndex(32, 32, 64, 64, 2, 2), test.ShouldEqual, 3)
}

func TestBuildEdges(t *testing.T) {
	o := synthScene(t, 0)

	records := o.Records()
	valid := o.ValidEdges()
	test.That(t, len(records), test.ShouldBeGreaterThan, 0)
	test.That(t, len(valid), test.ShouldBeGreaterThan, 0)
	test.That(t, len(valid), test.ShouldBeLessThanOrEqualTo, len(records))

	for i := range valid {
		e := &valid[i]
		test.That(t, e.Valid(), test.ShouldBeTrue)
		test.That(t, e.Dir, test.ShouldEqual, 0) // horizontal gradient only
		test.That(t, e.Depth, test.ShouldEqual, sceneDepth)
		test.That(t, e.Weight, test.ShouldEqual, o.params.ConstantWeight)

		// the step sits between columns 31 and 32; the refined location
		// lands between them from both flanks
		test.That(t, e.SubX, test.ShouldAlmostEqual, 31.5, 1e-9)
		test.That(t, e.SubY, test.ShouldEqual, float64(e.Y))

		// projects onto the color edge under the aligned model
		test.That(t, e.UV.X, test.ShouldAlmostEqual, 63.5, 1e-9)
	}

	// the filter chain only ever narrows
	var nIR, nNMS, nDepth, nInside int
	for i := range records {
		if records[i].PassedIR {
			nIR++
		}
		if records[i].PassedNMS {
			nNMS++
		}
		if records[i].PassedDepth {
			nDepth++
		}
		if records[i].Inside {
			nInside++
		}
	}
	test.That(t, nIR, test.ShouldBeGreaterThanOrEqualTo, nNMS)
	test.That(t, nNMS, test.ShouldBeGreaterThanOrEqualTo, nDepth)
	test.That(t, nDepth, test.ShouldBeGreaterThanOrEqualTo, nInside)
	test.That(t, nInside, test.ShouldEqual, len(valid))
}

func TestSectionWeights(t *testing.T) {
	o := synthScene(t, 0)
	sums := o.SectionWeights()
	test.That(t, len(sums), test.ShouldEqual, 4)

	var total float64
	for _, s := range sums {
		total += s
	}
	test.That(t, total, test.ShouldEqual, float64(len(o.ValidEdges()))*o.params.ConstantWeight)

	// the vertical edge crosses the top and bottom halves evenly
	test.That(t, sums[0], test.ShouldEqual, sums[2])
}

func TestZeroInvalidEdges(t *testing.T) {
	o := synthScene(t, 0)
	before := len(o.ValidEdges())
	test.That(t, before, test.ShouldBeGreaterThan, 0)

	// raising the IR gate above the scene's edge response drops everything
	o.params.GradIRThreshold = 1e6
	o.ZeroInvalidEdges()
	test.That(t, len(o.ValidEdges()), test.ShouldEqual, 0)
}
