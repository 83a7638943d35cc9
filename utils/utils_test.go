package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngles(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90.)
	test.That(t, RadToDeg(DegToRad(37.5)), test.ShouldAlmostEqual, 37.5)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-12, DefaultEpsilon), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, DefaultEpsilon), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(math.Inf(1), math.Inf(1), DefaultEpsilon), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(math.Inf(1), math.Inf(-1), DefaultEpsilon), test.ShouldBeFalse)
	test.That(t, SlicesAlmostEqual([]float64{1, 2}, []float64{1, 2 + 1e-12}, DefaultEpsilon), test.ShouldBeTrue)
	test.That(t, SlicesAlmostEqual([]float64{1, 2}, []float64{1}, DefaultEpsilon), test.ShouldBeFalse)
}

func TestSpaceDelimitedStringToFloatSlice(t *testing.T) {
	test.That(t, SpaceDelimitedStringToFloatSlice(" 0.1  -2\t3e-1 "), test.ShouldResemble, []float64{0.1, -2, 0.3})
	test.That(t, SpaceDelimitedStringToFloatSlice(""), test.ShouldBeNil)

	parsed := SpaceDelimitedStringToFloatSlice("1 x")
	test.That(t, len(parsed), test.ShouldEqual, 2)
	test.That(t, math.IsNaN(parsed[1]), test.ShouldBeTrue)
}

func TestParseFloatList(t *testing.T) {
	parsed, err := ParseFloatList("0.5,1, -2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldResemble, []float64{0.5, 1, -2})

	parsed, err = ParseFloatList("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldBeEmpty)

	_, err = ParseFloatList("1,two")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "entry 1")
}

func TestToFloat64(t *testing.T) {
	for _, v := range []interface{}{float32(2), int32(2), uint8(2), int64(2), 2.0} {
		f, err := ToFloat64(v)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, f, test.ShouldEqual, 2.)
	}
	_, err := ToFloat64("2")
	test.That(t, err, test.ShouldNotBeNil)
}
