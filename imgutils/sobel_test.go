package imgutils

import (
	"testing"

	"go.viam.com/test"
)

// vertical step: columns 0-3 dark, columns 4-7 bright
func stepField() *Field {
	f := NewField(8, 8)
	for y := 0; y < 8; y++ {
		for x := 4; x < 8; x++ {
			f.Set(x, y, 100)
		}
	}
	return f
}

func TestSobelStep(t *testing.T) {
	f := stepField()
	gx := SobelX(f)
	gy := SobelY(f)

	// the step sits between columns 3 and 4; both flanks respond with
	// half the step height after the /8 normalization
	test.That(t, gx.At(3, 4), test.ShouldEqual, 50)
	test.That(t, gx.At(4, 4), test.ShouldEqual, 50)
	test.That(t, gx.At(1, 4), test.ShouldEqual, 0)
	test.That(t, gx.At(6, 4), test.ShouldEqual, 0)

	// no vertical change anywhere
	for y := 1; y < 7; y++ {
		for x := 1; x < 7; x++ {
			test.That(t, gy.At(x, y), test.ShouldEqual, 0)
		}
	}

	// border ring is never written
	test.That(t, gx.At(0, 4), test.ShouldEqual, 0)
	test.That(t, gx.At(7, 4), test.ShouldEqual, 0)
}

func TestMagnitude(t *testing.T) {
	gx := NewField(2, 1)
	gy := NewField(2, 1)
	gx.Set(0, 0, 3)
	gy.Set(0, 0, 4)
	m := Magnitude(gx, gy)
	test.That(t, m.At(0, 0), test.ShouldEqual, 5)
	test.That(t, m.At(1, 0), test.ShouldEqual, 0)
}

func TestZeroMargin(t *testing.T) {
	f := NewField(6, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			f.Set(x, y, 1)
		}
	}
	ZeroMargin(f)

	test.That(t, f.At(1, 2), test.ShouldEqual, 0)
	test.That(t, f.At(4, 2), test.ShouldEqual, 0)
	test.That(t, f.At(3, 1), test.ShouldEqual, 0)
	test.That(t, f.At(3, 3), test.ShouldEqual, 0)

	// interior and outermost ring untouched
	test.That(t, f.At(2, 2), test.ShouldEqual, 1)
	test.That(t, f.At(0, 0), test.ShouldEqual, 1)
	test.That(t, f.At(5, 4), test.ShouldEqual, 1)
}
