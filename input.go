package autocal

import (
	"fmt"

	"go.viam.com/rdk/rimage"
	"go.viam.com/rdk/rimage/transform"

	"github.com/erh/autocal/calib"
	"github.com/erh/autocal/imgutils"
)

// SetColorFrames ingests the current and previous packed-YUY2 color frames
// and the active color calibration model, and precomputes the smoothed edge
// field the optimizer descends on.
func (o *Optimizer) SetColorFrames(curr, prev []byte, model *calib.Model) error {
	if err := model.CheckValid(); err != nil {
		return err
	}
	w, h := model.Intrinsics.Width, model.Intrinsics.Height

	lum, err := imgutils.FieldFromYUY2(curr, w, h)
	if err != nil {
		return fmt.Errorf("color frame: %w", err)
	}
	prevLum, err := imgutils.FieldFromYUY2(prev, w, h)
	if err != nil {
		return fmt.Errorf("previous color frame: %w", err)
	}

	c := &o.color
	c.raw = curr
	c.prevRaw = prev
	c.model = model
	c.lum = lum
	c.prevLum = prevLum
	c.edges = imgutils.Magnitude(imgutils.SobelX(lum), imgutils.SobelY(lum))
	c.prevEdges = imgutils.Magnitude(imgutils.SobelX(prevLum), imgutils.SobelY(prevLum))
	c.idt = imgutils.BlurPropagate(c.edges, o.params.Gamma, o.params.Alpha)
	c.idtX = imgutils.SobelX(c.idt)
	c.idtY = imgutils.SobelY(c.idt)
	c.idtMax = c.idt.Max()
	return nil
}

// SetIRFrame ingests the infrared frame, which shares the depth sensor's
// resolution and viewpoint.
func (o *Optimizer) SetIRFrame(data []uint16, width, height int) error {
	frame, err := imgutils.FieldFromUint16(data, width, height)
	if err != nil {
		return fmt.Errorf("ir frame: %w", err)
	}
	ir := &o.ir
	ir.raw = data
	ir.frame = frame
	ir.gx = imgutils.SobelX(frame)
	ir.gy = imgutils.SobelY(frame)
	imgutils.ZeroMargin(ir.gx)
	imgutils.ZeroMargin(ir.gy)
	ir.edges = imgutils.Magnitude(ir.gx, ir.gy)
	return nil
}

// SetDepthFrameMap is SetDepthFrame for an rimage depth map.
func (o *Optimizer) SetDepthFrameMap(
	dm *rimage.DepthMap,
	intr *transform.PinholeCameraIntrinsics,
	dsm DSMParams,
	depthUnits float64,
) error {
	raw := make([]uint16, dm.Width()*dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			raw[y*dm.Width()+x] = uint16(dm.GetDepth(x, y))
		}
	}
	return o.SetDepthFrame(raw, intr, dsm, depthUnits)
}

// SetDepthFrame ingests the depth frame and runs edge localization and
// vertex reconstruction. The IR and color frames must be set first; this is
// the last ingestion step before Optimize.
func (o *Optimizer) SetDepthFrame(
	data []uint16,
	intr *transform.PinholeCameraIntrinsics,
	dsm DSMParams,
	depthUnits float64,
) error {
	if err := intr.CheckValid(); err != nil {
		return err
	}
	if o.ir.frame == nil {
		return fmt.Errorf("ir frame must be set before the depth frame")
	}
	if o.color.model == nil {
		return fmt.Errorf("color frames must be set before the depth frame")
	}
	if o.ir.frame.Width() != intr.Width || o.ir.frame.Height() != intr.Height {
		return fmt.Errorf("ir frame %dx%d does not match depth intrinsics %dx%d",
			o.ir.frame.Width(), o.ir.frame.Height(), intr.Width, intr.Height)
	}
	frame, err := imgutils.FieldFromUint16(data, intr.Width, intr.Height)
	if err != nil {
		return fmt.Errorf("depth frame: %w", err)
	}
	if depthUnits <= 0 {
		return fmt.Errorf("depth units must be positive, got %f", depthUnits)
	}

	o.params.adjustForDepthResolution(intr.Width, intr.Height)

	z := &o.depth
	z.raw = data
	z.frame = frame
	z.intrinsics = *intr
	z.dsm = dsm
	z.units = depthUnits
	z.gx = imgutils.SobelX(frame)
	z.gy = imgutils.SobelY(frame)
	imgutils.ZeroMargin(z.gx)
	imgutils.ZeroMargin(z.gy)
	z.edges = imgutils.Magnitude(z.gx, z.gy)

	o.buildEdges()
	o.logger.Debugf("edge localization kept %d of %d candidates", len(z.valid), len(z.records))
	return nil
}
