package autocal

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/rimage/transform"

	"github.com/erh/autocal/calib"
)

// DSMParams are the device-specific depth distortion-model parameters. The
// engine treats them as opaque: they flow through the converter and only the
// scale factors are clipped at the end of a run.
type DSMParams struct {
	HScale    float64
	VScale    float64
	HOffset   float64
	VOffset   float64
	RtdOffset float64
}

// DefaultDSMParams is the neutral model: unit scale, zero offsets.
func DefaultDSMParams() DSMParams {
	return DSMParams{HScale: 1, VScale: 1}
}

// DSMConverter turns optimized depth intrinsics into candidate device
// distortion parameters, and re-deprojects the edge set under the new model.
// The returned vertex slice must be index-aligned with edges.
type DSMConverter interface {
	Convert(
		orig, optimized transform.PinholeCameraIntrinsics,
		current DSMParams,
		edges []EdgeRecord,
		depthUnits float64,
	) (DSMParams, []r3.Vector, error)
}

// PassthroughConverter is the converter for devices without a distortion
// pipeline (and for tests): it folds the focal correction into the scale
// factors and re-deprojects the edges with the optimized intrinsics.
type PassthroughConverter struct{}

func (c *PassthroughConverter) Convert(
	orig, optimized transform.PinholeCameraIntrinsics,
	current DSMParams,
	edges []EdgeRecord,
	depthUnits float64,
) (DSMParams, []r3.Vector, error) {
	if orig.Fx <= 0 || orig.Fy <= 0 {
		return current, nil, fmt.Errorf("original depth intrinsics have non-positive focal lengths")
	}
	out := current
	out.HScale = current.HScale * optimized.Fx / orig.Fx
	out.VScale = current.VScale * optimized.Fy / orig.Fy

	vertices := make([]r3.Vector, len(edges))
	for i := range edges {
		vertices[i] = calib.Deproject(&optimized, edges[i].SubX, edges[i].SubY, edges[i].Depth*depthUnits)
	}
	return out, vertices, nil
}

// clipDSM clamps the candidate scale factors to the allowed step around the
// original parameters.
func clipDSM(orig, cand DSMParams, maxStep float64) DSMParams {
	out := cand
	out.HScale = clamp(cand.HScale, orig.HScale-maxStep, orig.HScale+maxStep)
	out.VScale = clamp(cand.VScale, orig.VScale-maxStep, orig.VScale+maxStep)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
