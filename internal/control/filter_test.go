package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAveragePartialWindow(t *testing.T) {
	f := NewMovingAverage(5)
	assert.Equal(t, 2.0, f.Filter(2))
	assert.Equal(t, 3.0, f.Filter(4))
	assert.Equal(t, 4.0, f.Filter(6))
}

func TestMovingAverageFullWindow(t *testing.T) {
	f := NewMovingAverage(3)
	f.Filter(1)
	f.Filter(2)
	f.Filter(3)
	// window now slides: {2,3,4}
	assert.InDelta(t, 3.0, f.Filter(4), 1e-12)
	assert.InDelta(t, 4.0, f.Filter(5), 1e-12)
}

func TestMovingAverageReset(t *testing.T) {
	f := NewMovingAverage(3)
	f.Filter(10)
	f.Reset()
	assert.Equal(t, 7.0, f.Filter(7))
}

func TestAngleAverageNearSeam(t *testing.T) {
	f := NewAngleAverage(2)
	// Angles straddling +/-pi: arithmetic mean would be ~0, the correct
	// answer is ~pi.
	f.Filter(math.Pi - 0.05)
	got := f.Filter(-math.Pi + 0.05)
	assert.InDelta(t, math.Pi, math.Abs(got), 0.01)
}

func TestAngleAverageStaysInRange(t *testing.T) {
	f := NewAngleAverage(4)
	for _, th := range []float64{3.0, -3.0, 3.1, -3.1, 1.0, -1.0} {
		got := f.Filter(th)
		assert.True(t, got > -math.Pi-1e-12 && got <= math.Pi+1e-12)
	}
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0.0, WrapAngle(2*math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi+0.5, WrapAngle(math.Pi+0.5), 1e-12)
	assert.InDelta(t, 1.0, WrapAngle(1.0), 1e-12)
	// the seam maps to +pi, never -pi
	assert.Equal(t, math.Pi, WrapAngle(-math.Pi))
	assert.Equal(t, math.Pi, WrapAngle(math.Pi))
}
