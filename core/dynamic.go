package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GravitationalConstant is G in light-seconds³ per Jupiter mass per hour².
const GravitationalConstant = 0.0609109

// Dynamic describes how a body's offset from its parent evolves with time.
// The variant set is closed: Fixed and Keplerian.
type Dynamic interface {
	// OffsetAt returns the offset from the parent at a simulation time in
	// hours.
	OffsetAt(hours float64) r3.Vec
}

// Fixed is a constant offset from the parent. Used for bodies whose motion is
// negligible over observational time scales, such as stars about the galactic
// centre.
type Fixed struct {
	Offset r3.Vec
}

// NewFixed returns a Fixed dynamic with the given offset.
func NewFixed(offset r3.Vec) *Fixed {
	return &Fixed{Offset: offset}
}

// OffsetAt returns the constant offset regardless of time.
func (f *Fixed) OffsetAt(float64) r3.Vec {
	return f.Offset
}

// Keplerian is a closed-form Keplerian orbit. The three orientation angles
// (inclination, longitude of ascending node, argument of periapsis) are fused
// into a single rotation at construction so OffsetAt is one eccentric-anomaly
// solve and one rotation per call.
type Keplerian struct {
	eccentricity  float64
	semiMajorAxis float64 // light-seconds
	// semiLatusFactor caches 1 - e².
	semiLatusFactor float64
	orientation     r3.Rotation
	meanAnomalyAt0  float64 // radians at epoch
	period          float64 // hours

	// Raw orientation angles, kept only so orbits survive serialization;
	// OffsetAt never reads them.
	inclination   float64
	ascendingNode float64
	argPeriapsis  float64
}

// NewKeplerian builds an orbit around a parent of the given mass (Jupiter
// masses), deriving the orbital period from Kepler's third law. Angles are in
// radians, the semi-major axis in light-seconds.
//
// Panics if eccentricity is outside [0,1) or the semi-major axis is not
// positive; constructing such an orbit is a programming error.
func NewKeplerian(eccentricity, semiMajorAxis, inclination, ascendingNode, argPeriapsis, meanAnomaly, parentMass float64) *Keplerian {
	period := 2 * math.Pi * math.Sqrt(
		semiMajorAxis*semiMajorAxis*semiMajorAxis/(parentMass*GravitationalConstant))
	return NewKeplerianWithPeriod(eccentricity, semiMajorAxis, inclination, ascendingNode, argPeriapsis, meanAnomaly, period)
}

// NewKeplerianWithPeriod builds an orbit with an explicitly supplied orbital
// period in hours.
func NewKeplerianWithPeriod(eccentricity, semiMajorAxis, inclination, ascendingNode, argPeriapsis, meanAnomaly, period float64) *Keplerian {
	if eccentricity < 0 || eccentricity >= 1 {
		panic(fmt.Sprintf("core: keplerian eccentricity %v outside [0,1)", eccentricity))
	}
	if semiMajorAxis <= 0 {
		panic(fmt.Sprintf("core: keplerian semi-major axis %v must be positive", semiMajorAxis))
	}
	if period <= 0 {
		panic(fmt.Sprintf("core: keplerian period %v must be positive", period))
	}

	// Classical element composition: rotate the periapsis into place within
	// the orbital plane, tilt the plane, then swing the ascending node.
	orientation := ComposeRotations(
		r3.NewRotation(ascendingNode, r3.Vec{Z: 1}),
		ComposeRotations(
			r3.NewRotation(inclination, r3.Vec{X: 1}),
			r3.NewRotation(argPeriapsis, r3.Vec{Z: 1}),
		),
	)

	return &Keplerian{
		eccentricity:    eccentricity,
		semiMajorAxis:   semiMajorAxis,
		semiLatusFactor: 1 - eccentricity*eccentricity,
		orientation:     orientation,
		meanAnomalyAt0:  meanAnomaly,
		period:          period,
		inclination:     inclination,
		ascendingNode:   ascendingNode,
		argPeriapsis:    argPeriapsis,
	}
}

// OffsetAt returns the orbital position relative to the parent at the given
// simulation time in hours.
func (k *Keplerian) OffsetAt(hours float64) r3.Vec {
	e := k.eccentricAnomaly(k.meanAnomaly(hours))
	sinE, cosE := math.Sincos(e)

	// In-plane position with +X toward periapsis.
	planar := r3.Vec{
		X: k.semiMajorAxis * (cosE - k.eccentricity),
		Y: k.semiMajorAxis * math.Sqrt(k.semiLatusFactor) * sinE,
	}
	return k.orientation.Rotate(planar)
}

// Eccentricity returns the orbital eccentricity.
func (k *Keplerian) Eccentricity() float64 { return k.eccentricity }

// SemiMajorAxis returns the semi-major axis in light-seconds.
func (k *Keplerian) SemiMajorAxis() float64 { return k.semiMajorAxis }

// Period returns the orbital period in hours.
func (k *Keplerian) Period() float64 { return k.period }

// meanAnomaly returns the mean anomaly at the given time. May exceed 2π; the
// callers only feed it into sin and cos.
func (k *Keplerian) meanAnomaly(hours float64) float64 {
	return math.Mod(hours, k.period)/k.period*2*math.Pi + k.meanAnomalyAt0
}

// eccentricAnomaly solves Kepler's equation M = E - e·sin(E) by fixed-point
// iteration, accurate to well under a milliradian for the eccentricities the
// generator produces.
func (k *Keplerian) eccentricAnomaly(meanAnomaly float64) float64 {
	e := meanAnomaly
	for i := 0; i < 20; i++ {
		e = meanAnomaly + k.eccentricity*math.Sin(e)
	}
	return e
}
