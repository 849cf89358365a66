package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRotatingNormalizesAxis(t *testing.T) {
	r := NewRotating(24, r3.Vec{Z: 5})
	if got := r3.Norm(r.Axis()); math.Abs(got-1) > 1e-12 {
		t.Errorf("|Axis()| = %v, want 1", got)
	}
	if got := r.SiderealPeriod(); got != 24 {
		t.Errorf("SiderealPeriod() = %v, want 24", got)
	}
}

// The sky turns opposite to the body's spin: a quarter revolution about +Z
// carries an object at +X to -Y as seen from the surface.
func TestRotatingQuarterTurn(t *testing.T) {
	r := NewRotating(24, r3.Vec{Z: 1})
	got := r.RotationAt(6).Rotate(r3.Vec{X: 1})
	if !vecsClose(got, r3.Vec{Y: -1}, 1e-9) {
		t.Errorf("quarter turn moved +X to %v, want -Y", got)
	}
}

func TestRotatingFullTurnIsIdentity(t *testing.T) {
	r := NewRotating(17.3, r3.Vec{X: 1, Y: 2, Z: -1})
	v := r3.Vec{X: 0.2, Y: -1.5, Z: 3}
	if got := r.RotationAt(17.3).Rotate(v); !vecsClose(got, v, 1e-9) {
		t.Errorf("full turn moved %v to %v, want unchanged", v, got)
	}
	if got := r.RotationAt(0).Rotate(v); !vecsClose(got, v, 1e-12) {
		t.Errorf("zero turn moved %v to %v, want unchanged", v, got)
	}
}

func TestRotatingLeavesAxisFixed(t *testing.T) {
	axis := r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})
	r := NewRotating(10, axis)
	for _, hours := range []float64{1, 2.5, 7, 9.9} {
		if got := r.RotationAt(hours).Rotate(axis); !vecsClose(got, axis, 1e-9) {
			t.Errorf("RotationAt(%v) moved the axis to %v", hours, got)
		}
	}
}
