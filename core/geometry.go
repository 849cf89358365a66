package core

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// The local frame convention throughout the simulator: +Z is "up" (zenith at
// an observatory, north pole of a body), the X-Y plane is the horizon or the
// base orbital plane, and azimuth is measured from +X.

// Spherical is a point in spherical coordinates. Polar is the angle from +Z
// in radians, Azimuth the angle from +X in the X-Y plane.
type Spherical struct {
	Radius  float64 `json:"radius"`
	Polar   float64 `json:"polar"`
	Azimuth float64 `json:"azimuth"`
}

// SphericalFromVec converts a cartesian offset to spherical coordinates.
func SphericalFromVec(v r3.Vec) Spherical {
	r := r3.Norm(v)
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius:  r,
		Polar:   math.Acos(clamp(v.Z/r, -1, 1)),
		Azimuth: math.Atan2(v.Y, v.X),
	}
}

// Vec converts back to cartesian coordinates.
func (s Spherical) Vec() r3.Vec {
	sinP, cosP := math.Sincos(s.Polar)
	sinA, cosA := math.Sincos(s.Azimuth)
	return r3.Vec{
		X: s.Radius * sinP * cosA,
		Y: s.Radius * sinP * sinA,
		Z: s.Radius * cosP,
	}
}

// AltitudeDegrees returns the elevation above the horizon in degrees.
// 0° = horizon, 90° = zenith, negative below the horizon.
func (s Spherical) AltitudeDegrees() float64 {
	return 90.0 - s.Polar*180.0/math.Pi
}

// DirectionFromLatLong returns the unit surface direction for a latitude and
// longitude given in degrees, with the body's north pole at +Z.
func DirectionFromLatLong(latDeg, lonDeg float64) r3.Vec {
	polar := (90.0 - latDeg) * math.Pi / 180.0
	azimuth := lonDeg * math.Pi / 180.0
	return Spherical{Radius: 1, Polar: polar, Azimuth: azimuth}.Vec()
}

// LatLongFromDirection inverts DirectionFromLatLong, returning degrees.
func LatLongFromDirection(v r3.Vec) (latDeg, lonDeg float64) {
	s := SphericalFromVec(v)
	return 90.0 - s.Polar*180.0/math.Pi, s.Azimuth * 180.0 / math.Pi
}

// IdentityRotation returns the no-op rotation.
func IdentityRotation() r3.Rotation {
	return r3.Rotation(quat.Number{Real: 1})
}

// RotationFromTo returns the rotation carrying the direction of from onto the
// direction of to along the great circle between them.
func RotationFromTo(from, to r3.Vec) r3.Rotation {
	a := r3.Unit(from)
	b := r3.Unit(to)
	d := clamp(r3.Dot(a, b), -1, 1)

	const parallelEps = 1e-12
	if d >= 1-parallelEps {
		return IdentityRotation()
	}
	if d <= -1+parallelEps {
		// Antiparallel: rotate π about any axis perpendicular to a.
		return r3.NewRotation(math.Pi, anyPerpendicular(a))
	}
	axis := r3.Cross(a, b)
	return r3.NewRotation(math.Acos(d), axis)
}

// ComposeRotations returns the rotation equivalent to applying inner first
// and then outer.
func ComposeRotations(outer, inner r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(outer), quat.Number(inner)))
}

// anyPerpendicular picks a unit vector perpendicular to v.
func anyPerpendicular(v r3.Vec) r3.Vec {
	ref := r3.Vec{X: 1}
	if math.Abs(v.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Cross(v, ref))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
