package calib

import (
	"fmt"

	"go.viam.com/rdk/rimage/transform"
)

// Model is the color-sensor calibration: pinhole intrinsics, Brown-Conrady
// lens distortion, and the extrinsic transform from the depth camera frame.
// Rotation is row-major 3x3.
type Model struct {
	Intrinsics  *transform.PinholeCameraIntrinsics
	Distortion  *transform.BrownConrady
	Rotation    [9]float64
	Translation [3]float64
}

func (m *Model) CheckValid() error {
	if m == nil {
		return fmt.Errorf("calibration model is nil")
	}
	if err := m.Intrinsics.CheckValid(); err != nil {
		return err
	}
	if m.Rotation == ([9]float64{}) {
		return fmt.Errorf("calibration model has a zero rotation matrix")
	}
	return nil
}

// Clone returns a deep copy; the optimizer mutates candidate models freely.
func (m *Model) Clone() *Model {
	intr := *m.Intrinsics
	c := &Model{
		Intrinsics:  &intr,
		Rotation:    m.Rotation,
		Translation: m.Translation,
	}
	if m.Distortion != nil {
		d := *m.Distortion
		c.Distortion = &d
	}
	return c
}

// ProjectionMatrix composes P = K * [R|t].
func (m *Model) ProjectionMatrix() PMatrix {
	fx, fy := m.Intrinsics.Fx, m.Intrinsics.Fy
	ppx, ppy := m.Intrinsics.Ppx, m.Intrinsics.Ppy
	r := m.Rotation
	t := m.Translation

	var p PMatrix
	for j := 0; j < 3; j++ {
		p[j] = fx*r[j] + ppx*r[6+j]
		p[4+j] = fy*r[3+j] + ppy*r[6+j]
		p[8+j] = r[6+j]
	}
	p[3] = fx*t[0] + ppx*t[2]
	p[7] = fy*t[1] + ppy*t[2]
	p[11] = t[2]
	return p
}
