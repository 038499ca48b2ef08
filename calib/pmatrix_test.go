package calib

import (
	"testing"

	"go.viam.com/test"
)

func TestPMatrixArithmetic(t *testing.T) {
	a := PMatrix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	b := PMatrix{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}

	sum := a.Add(b)
	test.That(t, sum[0], test.ShouldEqual, 3)
	test.That(t, sum[11], test.ShouldEqual, 14)

	diff := sum.Sub(b)
	test.That(t, diff, test.ShouldResemble, a)

	test.That(t, a.Scale(2)[3], test.ShouldEqual, 8)
	test.That(t, a.DivElem(b)[5], test.ShouldEqual, 3)

	test.That(t, b.Dot(b), test.ShouldEqual, 48)
	test.That(t, PMatrix{3, 4}.Norm(), test.ShouldEqual, 5)

	test.That(t, PMatrix{}.IsZero(), test.ShouldBeTrue)
	test.That(t, a.IsZero(), test.ShouldBeFalse)
}
