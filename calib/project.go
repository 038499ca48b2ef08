package calib

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/rimage/transform"
)

// Deproject maps a (possibly sub-pixel) depth-image coordinate plus a depth
// sample into a 3D point in the depth camera frame.
func Deproject(intr *transform.PinholeCameraIntrinsics, px, py, depth float64) r3.Vector {
	x, y, z := intr.PixelToPoint(px, py, depth)
	return r3.Vector{X: x, Y: y, Z: z}
}

// ProjectThroughP maps a 3D depth-frame vertex into color-image pixel space
// through a projection matrix: homogeneous transform, perspective divide,
// lens distortion on the normalized coordinates, then focal scale and
// principal point offset. ok is false when the vertex sits on the camera
// plane (zero homogeneous depth).
//
// This is the one projection kernel in the system; edge localization and
// every line-search trial both go through it.
func ProjectThroughP(
	p PMatrix,
	intr *transform.PinholeCameraIntrinsics,
	dist *transform.BrownConrady,
	v r3.Vector,
) (r2.Point, bool) {
	x1 := p[0]*v.X + p[1]*v.Y + p[2]*v.Z + p[3]
	y1 := p[4]*v.X + p[5]*v.Y + p[6]*v.Z + p[7]
	z1 := p[8]*v.X + p[9]*v.Y + p[10]*v.Z + p[11]
	if z1 == 0 {
		return r2.Point{}, false
	}

	xin := x1 / z1
	yin := y1 / z1

	xn := (xin - intr.Ppx) / intr.Fx
	yn := (yin - intr.Ppy) / intr.Fy
	if dist != nil {
		xn, yn = dist.Transform(xn, yn)
	}

	return r2.Point{
		X: xn*intr.Fx + intr.Ppx,
		Y: yn*intr.Fy + intr.Ppy,
	}, true
}

// RadialScale is the Brown-Conrady radial factor 1 + k1*r^2 + k2*r^4 + k3*r^6
// at a normalized image coordinate. The gradient evaluator treats it as
// locally constant when differentiating the projection.
func RadialScale(dist *transform.BrownConrady, xn, yn float64) float64 {
	if dist == nil {
		return 1
	}
	r2v := xn*xn + yn*yn
	return 1 + dist.RadialK1*r2v + dist.RadialK2*r2v*r2v + dist.RadialK3*r2v*r2v*r2v
}
