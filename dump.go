package autocal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.viam.com/rdk/rimage/transform"
	"go.viam.com/utils"

	"github.com/erh/autocal/calib"
)

// The diagnostic dump is a directory of raw sensor frames plus a fixed
// little-endian parameter blob, so a failing scene can be replayed offline.
const (
	dumpDepthFile  = "depth.raw"
	dumpIRFile     = "ir.raw"
	dumpRGBFile    = "rgb.raw"
	dumpRGBPrev    = "rgb_prev.raw"
	dumpParamsFile = "cam-params.bin"
)

// FrameSet is one replayable calibration scene.
type FrameSet struct {
	Depth   []uint16
	IR      []uint16
	RGB     []byte
	RGBPrev []byte

	DepthIntrinsics transform.PinholeCameraIntrinsics
	DepthUnits      float64
	Model           *calib.Model
}

// WriteDiagnostics dumps the ingested frames and calibration parameters to
// dir, creating it if needed.
func (o *Optimizer) WriteDiagnostics(dir string) error {
	if o.depth.raw == nil || o.ir.raw == nil || o.color.raw == nil {
		return fmt.Errorf("all frames must be set before writing diagnostics")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := writeBinaryFile(filepath.Join(dir, dumpDepthFile), o.depth.raw); err != nil {
		return err
	}
	if err := writeBinaryFile(filepath.Join(dir, dumpIRFile), o.ir.raw); err != nil {
		return err
	}
	if err := writeBinaryFile(filepath.Join(dir, dumpRGBFile), o.color.raw); err != nil {
		return err
	}
	if err := writeBinaryFile(filepath.Join(dir, dumpRGBPrev), o.color.prevRaw); err != nil {
		return err
	}
	return writeBinaryFile(filepath.Join(dir, dumpParamsFile), o.paramsBlob())
}

// paramsBlob packs the camera parameters as consecutive float64 values:
// depth width, height, units, depth K (9), color width, height, color K (9),
// distortion coefficients (5), rotation (9), translation (3).
func (o *Optimizer) paramsBlob() []float64 {
	z := o.depth.intrinsics
	m := o.color.model
	c := m.Intrinsics
	d := m.Distortion
	if d == nil {
		// a distortion-free model dumps zero coefficients
		d = &transform.BrownConrady{}
	}

	blob := make([]float64, 0, 40)
	blob = append(blob,
		float64(z.Width), float64(z.Height), o.depth.units,
		z.Fx, 0, z.Ppx,
		0, z.Fy, z.Ppy,
		0, 0, 1,
		float64(c.Width), float64(c.Height),
		c.Fx, 0, c.Ppx,
		0, c.Fy, c.Ppy,
		0, 0, 1,
		d.RadialK1, d.RadialK2, d.TangentialP1, d.TangentialP2, d.RadialK3,
	)
	blob = append(blob, m.Rotation[:]...)
	blob = append(blob, m.Translation[:]...)
	return blob
}

// ReadDiagnostics loads a scene previously written by WriteDiagnostics.
func ReadDiagnostics(dir string) (*FrameSet, error) {
	blob := make([]float64, 40)
	if err := readBinaryFile(filepath.Join(dir, dumpParamsFile), blob); err != nil {
		return nil, err
	}

	fs := &FrameSet{
		DepthIntrinsics: transform.PinholeCameraIntrinsics{
			Width:  int(blob[0]),
			Height: int(blob[1]),
			Fx:     blob[3],
			Fy:     blob[7],
			Ppx:    blob[5],
			Ppy:    blob[8],
		},
		DepthUnits: blob[2],
		Model: &calib.Model{
			Intrinsics: &transform.PinholeCameraIntrinsics{
				Width:  int(blob[12]),
				Height: int(blob[13]),
				Fx:     blob[14],
				Fy:     blob[18],
				Ppx:    blob[16],
				Ppy:    blob[19],
			},
			Distortion: &transform.BrownConrady{
				RadialK1:     blob[23],
				RadialK2:     blob[24],
				TangentialP1: blob[25],
				TangentialP2: blob[26],
				RadialK3:     blob[27],
			},
		},
	}
	copy(fs.Model.Rotation[:], blob[28:37])
	copy(fs.Model.Translation[:], blob[37:40])

	zn := fs.DepthIntrinsics.Width * fs.DepthIntrinsics.Height
	cn := fs.Model.Intrinsics.Width * fs.Model.Intrinsics.Height

	fs.Depth = make([]uint16, zn)
	if err := readBinaryFile(filepath.Join(dir, dumpDepthFile), fs.Depth); err != nil {
		return nil, err
	}
	fs.IR = make([]uint16, zn)
	if err := readBinaryFile(filepath.Join(dir, dumpIRFile), fs.IR); err != nil {
		return nil, err
	}
	fs.RGB = make([]byte, cn*2)
	if err := readBinaryFile(filepath.Join(dir, dumpRGBFile), fs.RGB); err != nil {
		return nil, err
	}
	fs.RGBPrev = make([]byte, cn*2)
	if err := readBinaryFile(filepath.Join(dir, dumpRGBPrev), fs.RGBPrev); err != nil {
		return nil, err
	}
	return fs, nil
}

// Feed loads a frame set into the optimizer in the required order.
func (o *Optimizer) Feed(fs *FrameSet) error {
	if err := o.SetColorFrames(fs.RGB, fs.RGBPrev, fs.Model); err != nil {
		return err
	}
	if err := o.SetIRFrame(fs.IR, fs.DepthIntrinsics.Width, fs.DepthIntrinsics.Height); err != nil {
		return err
	}
	return o.SetDepthFrame(fs.Depth, &fs.DepthIntrinsics, DefaultDSMParams(), fs.DepthUnits)
}

func writeBinaryFile(fn string, data interface{}) error {
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, data); err != nil {
		utils.UncheckedErrorFunc(f.Close)
		return fmt.Errorf("cannot write %s: %w", fn, err)
	}
	return f.Close()
}

func readBinaryFile(fn string, data interface{}) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	if err := binary.Read(f, binary.LittleEndian, data); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return fmt.Errorf("%s is truncated", fn)
		}
		return fmt.Errorf("cannot read %s: %w", fn, err)
	}
	return nil
}
