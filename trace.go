package autocal

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/erh/autocal/calib"
)

// IterationData is a snapshot of one inner optimization step.
type IterationData struct {
	Cycle     int
	Iteration int

	P        calib.PMatrix
	Cost     float64
	Gradient calib.PMatrix
	UV       []r2.Point

	NextP    calib.PMatrix
	NextCost float64

	StepSize       float64
	T              float64
	BackTrackIters int
	StepRejected   bool
}

// CycleData is a snapshot of one outer cycle's candidate distortion model.
// OrigVertices is the initial reconstruction, kept so a sink can measure
// how far the converter has drifted the vertex set.
type CycleData struct {
	Cycle        int
	DSMCandidate DSMParams
	Vertices     []r3.Vector
	OrigVertices []r3.Vector
}

// TraceSink receives per-iteration and per-cycle snapshots while the
// optimizer runs. Sink errors are logged and never interrupt optimization.
type TraceSink interface {
	OnIteration(IterationData) error
	OnCycle(CycleData) error
}

func (o *Optimizer) emitIteration(d IterationData) {
	if o.trace == nil {
		return
	}
	if err := o.trace.OnIteration(d); err != nil {
		o.logger.Warnf("trace sink iteration error: %v", err)
	}
}

func (o *Optimizer) emitCycle(d CycleData) {
	if o.trace == nil {
		return
	}
	if err := o.trace.OnCycle(d); err != nil {
		o.logger.Warnf("trace sink cycle error: %v", err)
	}
}
