package autocal

import (
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage/transform"
	"go.viam.com/test"

	"github.com/erh/autocal/calib"
)

const (
	sceneDepthSize = 64
	sceneColorSize = 128
	sceneDepth     = 1000 // raw units, 1m at 0.001 units
)

// synthScene builds a scene where a vertical depth/IR edge at column 32
// projects onto a vertical color edge at column 64 under the identity
// extrinsics. shiftX misaligns the extrinsics to give the optimizer work.
func synthScene(t *testing.T, shiftX float64) *Optimizer {
	t.Helper()

	ir := make([]uint16, sceneDepthSize*sceneDepthSize)
	depth := make([]uint16, sceneDepthSize*sceneDepthSize)
	for y := 0; y < sceneDepthSize; y++ {
		for x := 0; x < sceneDepthSize; x++ {
			depth[y*sceneDepthSize+x] = sceneDepth
			if x >= sceneDepthSize/2 {
				ir[y*sceneDepthSize+x] = 100
			}
		}
	}

	rgb := make([]byte, sceneColorSize*sceneColorSize*2)
	for y := 0; y < sceneColorSize; y++ {
		for x := 0; x < sceneColorSize; x++ {
			i := (y*sceneColorSize + x) * 2
			if x >= sceneColorSize/2 {
				rgb[i] = 200
			}
			rgb[i+1] = 128
		}
	}

	model := &calib.Model{
		Intrinsics: &transform.PinholeCameraIntrinsics{
			Width:  sceneColorSize,
			Height: sceneColorSize,
			Fx:     140,
			Fy:     140,
			Ppx:    63.5,
			Ppy:    63.5,
		},
		Distortion:  &transform.BrownConrady{},
		Rotation:    [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Translation: [3]float64{shiftX, 0, 0},
	}
	zIntr := &transform.PinholeCameraIntrinsics{
		Width:  sceneDepthSize,
		Height: sceneDepthSize,
		Fx:     70,
		Fy:     70,
		Ppx:    31.5,
		Ppy:    31.5,
	}

	params := DefaultParams()
	// the plane is flat, so no depth gradient gate
	params.GradZThreshold = -1

	o := NewOptimizer(params, logging.NewTestLogger(t))
	test.That(t, o.SetColorFrames(rgb, rgb, model), test.ShouldBeNil)
	test.That(t, o.SetIRFrame(ir, sceneDepthSize, sceneDepthSize), test.ShouldBeNil)
	test.That(t, o.SetDepthFrame(depth, zIntr, DefaultDSMParams(), 0.001), test.ShouldBeNil)
	return o
}
