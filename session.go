package autocal

import (
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage/transform"

	"github.com/erh/autocal/calib"
	"github.com/erh/autocal/imgutils"
)

// Optimizer owns all state for one calibration run. It is not safe for
// concurrent use; build one per run, feed it the frames, then call Optimize.
type Optimizer struct {
	params    Params
	logger    logging.Logger
	costFn    CostFunc
	trace     TraceSink
	converter DSMConverter

	depth depthData
	ir    irData
	color colorData

	finalModel *calib.Model
	finalDSM   DSMParams
	finalCost  float64
	lastIters  int
}

type depthData struct {
	raw    []uint16
	frame  *imgutils.Field
	gx, gy *imgutils.Field
	edges  *imgutils.Field

	intrinsics transform.PinholeCameraIntrinsics
	dsm        DSMParams
	units      float64

	records      []EdgeRecord
	valid        []EdgeRecord
	vertices     []r3.Vector
	origVertices []r3.Vector
	weights      []float64
}

type irData struct {
	raw    []uint16
	frame  *imgutils.Field
	gx, gy *imgutils.Field
	edges  *imgutils.Field
}

type colorData struct {
	raw, prevRaw []byte
	model        *calib.Model

	lum, prevLum     *imgutils.Field
	edges, prevEdges *imgutils.Field
	idt              *imgutils.Field
	idtX, idtY       *imgutils.Field
	idtMax           float64
}

func NewOptimizer(params Params, logger logging.Logger) *Optimizer {
	o := &Optimizer{
		params:    params,
		logger:    logger,
		converter: &PassthroughConverter{},
	}
	o.costFn = o.edgeMismatchCost
	return o
}

// SetCostFunc replaces the default edge-mismatch cost.
func (o *Optimizer) SetCostFunc(fn CostFunc) {
	o.costFn = fn
}

// SetTraceSink installs an observation-only diagnostic sink.
func (o *Optimizer) SetTraceSink(sink TraceSink) {
	o.trace = sink
}

// SetConverter installs the device K-to-distortion-model converter.
func (o *Optimizer) SetConverter(c DSMConverter) {
	o.converter = c
}

// Calibration returns the optimized color calibration model.
func (o *Optimizer) Calibration() *calib.Model { return o.finalModel }

// DSMParameters returns the final device distortion parameters.
func (o *Optimizer) DSMParameters() DSMParams { return o.finalDSM }

// Cost returns the cost of the accepted calibration.
func (o *Optimizer) Cost() float64 { return o.finalCost }

// LastCycleIterations reports the inner iteration count of the last cycle;
// zero means calibration was not necessary.
func (o *Optimizer) LastCycleIterations() int { return o.lastIters }

// ValidEdges exposes the surviving edge records, for diagnostics.
func (o *Optimizer) ValidEdges() []EdgeRecord { return o.depth.valid }
