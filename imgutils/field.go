package imgutils

import (
	"fmt"
	"math"

	"go.viam.com/rdk/rimage"
)

// OutOfRange is returned by Bilinear for coordinates outside the field.
const OutOfRange = math.MaxFloat64

// Field is a 2D grid of float64 samples stored flat, row-major.
type Field struct {
	width  int
	height int
	data   []float64
}

func NewField(width, height int) *Field {
	return &Field{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

func FieldFromSlice(data []float64, width, height int) (*Field, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("field data size %d does not match %dx%d", len(data), width, height)
	}
	return &Field{width: width, height: height, data: data}, nil
}

func FieldFromUint16(data []uint16, width, height int) (*Field, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("field data size %d does not match %dx%d", len(data), width, height)
	}
	f := NewField(width, height)
	for i, v := range data {
		f.data[i] = float64(v)
	}
	return f, nil
}

func FieldFromDepthMap(dm *rimage.DepthMap) *Field {
	f := NewField(dm.Width(), dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			f.data[y*f.width+x] = float64(dm.GetDepth(x, y))
		}
	}
	return f
}

// FieldFromYUY2 extracts the luma channel from a packed YUY2 buffer.
func FieldFromYUY2(packed []byte, width, height int) (*Field, error) {
	if len(packed) != width*height*2 {
		return nil, fmt.Errorf("yuy2 buffer size %d does not match %dx%d", len(packed), width, height)
	}
	f := NewField(width, height)
	for i := 0; i < width*height; i++ {
		f.data[i] = float64(packed[i*2])
	}
	return f, nil
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

func (f *Field) At(x, y int) float64 {
	return f.data[y*f.width+x]
}

func (f *Field) Set(x, y int, v float64) {
	f.data[y*f.width+x] = v
}

func (f *Field) Clone() *Field {
	c := NewField(f.width, f.height)
	copy(c.data, f.data)
	return c
}

// Max returns the largest sample in the field.
func (f *Field) Max() float64 {
	best := math.Inf(-1)
	for _, v := range f.data {
		if v > best {
			best = v
		}
	}
	return best
}

// Bilinear samples the field at a fractional coordinate, or OutOfRange if
// (x,y) falls outside [0,w-1]x[0,h-1].
func (f *Field) Bilinear(x, y float64) float64 {
	if x < 0 || y < 0 || x > float64(f.width-1) || y > float64(f.height-1) {
		return OutOfRange
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > f.width-1 {
		x1 = f.width - 1
	}
	if y1 > f.height-1 {
		y1 = f.height - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	top := f.At(x0, y0)*(1-fx) + f.At(x1, y0)*fx
	bottom := f.At(x0, y1)*(1-fx) + f.At(x1, y1)*fx
	return top*(1-fy) + bottom*fy
}
