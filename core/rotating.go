package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotating models a body's axial spin: a sidereal period in hours and the
// direction of its geographic north pole. The axis is normalized on
// construction and stays a unit vector.
type Rotating struct {
	siderealPeriod float64
	axis           r3.Vec
}

// NewRotating builds a rotation model. The axis need not be normalized.
func NewRotating(siderealPeriodHours float64, axis r3.Vec) *Rotating {
	return &Rotating{
		siderealPeriod: siderealPeriodHours,
		axis:           r3.Unit(axis),
	}
}

// SiderealPeriod returns the rotation period in hours.
func (r *Rotating) SiderealPeriod() float64 { return r.siderealPeriod }

// Axis returns the unit north-pole direction.
func (r *Rotating) Axis() r3.Vec { return r.axis }

// RotationAt returns the rotation applied to observed offsets at the given
// time. The angle is negated: from the surface, distant objects appear to
// revolve opposite to the body's own spin.
func (r *Rotating) RotationAt(hours float64) r3.Rotation {
	return r3.NewRotation(-r.meanAngle(hours), r.axis)
}

// meanAngle is the spin angle past the reference direction since the last
// complete revolution.
func (r *Rotating) meanAngle(hours float64) float64 {
	return math.Mod(hours, r.siderealPeriod) / r.siderealPeriod * 2 * math.Pi
}
