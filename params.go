package autocal

import "github.com/erh/autocal/calib"

// Params collects every tunable of the calibration engine. Zero values are
// not usable; start from DefaultParams.
type Params struct {
	// edge extraction
	GradIRThreshold float64 // minimum IR edge magnitude for a candidate
	GradZThreshold  float64 // minimum directional depth gradient
	Gamma           float64 // IDT propagation decay, < 1
	Alpha           float64 // IDT blend factor between raw edges and propagation
	SectionsX       int     // coarse section grid, horizontal cells
	SectionsY       int     // coarse section grid, vertical cells
	ConstantWeight  float64 // per-edge weight (uniform in this design)

	// line search
	ControlParam      float64 // sufficient-decrease control constant
	MaxStepSize       float64
	MinStepSize       float64
	Tau               float64 // step shrink factor, 0 < tau < 1
	MaxBackTrackIters int

	// inner optimization loop
	MaxInnerIters         int
	MinDeltaThreshold     float64 // parameter-delta norm stop criterion
	MinCostDeltaThreshold float64 // cost-delta stop criterion

	// outer cycles
	MaxCycles      int
	MaxScalingStep float64 // DSM scale clip range around the original

	// NormalizeMat rescales the 12 projection parameters to comparable
	// units before the line search; calibrated empirically once.
	NormalizeMat calib.PMatrix
}

func DefaultParams() Params {
	return Params{
		GradIRThreshold: 3.5,
		GradZThreshold:  0,
		Gamma:           0.98,
		Alpha:           1.0 / 3.0,
		SectionsX:       2,
		SectionsY:       2,
		ConstantWeight:  1000,

		ControlParam:      0.5,
		MaxStepSize:       1,
		MinStepSize:       1e-5,
		Tau:               0.5,
		MaxBackTrackIters: 50,

		MaxInnerIters:         50,
		MinDeltaThreshold:     1e-5,
		MinCostDeltaThreshold: 1e-5,

		MaxCycles:      10,
		MaxScalingStep: 0.02,

		NormalizeMat: calib.PMatrix{
			0.35369244, 0.26619774, 1.0092601, 0.00067320449,
			0.35508525, 0.26627505, 1.0114580, 0.00067501375,
			414.20557, 313.34106, 1187.3459, 0.79157025,
		},
	}
}

// adjustForDepthResolution applies resolution-dependent overrides.
func (p *Params) adjustForDepthResolution(width, height int) {
	if width == 1024 && height == 768 {
		p.GradIRThreshold = 2.5
	}
}
