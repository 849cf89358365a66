package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFixedOffset(t *testing.T) {
	f := NewFixed(r3.Vec{X: 1, Y: 2, Z: 3})
	for _, hours := range []float64{0, 1, -7, 1e6} {
		if got := f.OffsetAt(hours); got != (r3.Vec{X: 1, Y: 2, Z: 3}) {
			t.Errorf("OffsetAt(%v) = %v, want constant offset", hours, got)
		}
	}
}

// An Earth-like orbit: 1 AU around one solar mass must take one year.
func TestKeplerThirdLaw(t *testing.T) {
	const (
		oneAU        = 499.0     // light-seconds
		solarMass    = 1048.0    // jupiter masses
		yearHours    = 8766.0    // 365.25 days
		relTolerance = 0.001
	)
	k := NewKeplerian(0.0167, oneAU, 0, 0, 0, 0, solarMass)
	if rel := math.Abs(k.Period()-yearHours) / yearHours; rel > relTolerance {
		t.Errorf("Period() = %v hours, want %v within %v relative", k.Period(), yearHours, relTolerance)
	}
}

func TestKeplerianCircularOrbitKeepsRadius(t *testing.T) {
	k := NewKeplerian(0, 499, 0.3, 1.2, 0.7, 0.1, 1048)
	for i := 0; i < 32; i++ {
		hours := float64(i) / 32 * k.Period()
		if got := r3.Norm(k.OffsetAt(hours)); math.Abs(got-499) > 1e-6 {
			t.Errorf("|OffsetAt(%v)| = %v, want 499", hours, got)
		}
	}
}

func TestKeplerianPeriodWraps(t *testing.T) {
	k := NewKeplerian(0.4, 100, 0.5, 0.25, 1.5, 2.0, 500)
	at0 := k.OffsetAt(0)
	atPeriod := k.OffsetAt(k.Period())
	if !vecsClose(at0, atPeriod, 1e-6) {
		t.Errorf("OffsetAt(0) = %v, OffsetAt(period) = %v, want equal", at0, atPeriod)
	}
}

func TestKeplerianEccentricOrbitApsides(t *testing.T) {
	const (
		a = 200.0
		e = 0.5
	)
	// Mean anomaly zero at epoch puts the body at periapsis at t=0 and at
	// apoapsis half a period later.
	k := NewKeplerian(e, a, 0, 0, 0, 0, 1048)
	if got := r3.Norm(k.OffsetAt(0)); math.Abs(got-a*(1-e)) > 1e-6 {
		t.Errorf("periapsis distance = %v, want %v", got, a*(1-e))
	}
	if got := r3.Norm(k.OffsetAt(k.Period() / 2)); math.Abs(got-a*(1+e)) > 1e-3 {
		t.Errorf("apoapsis distance = %v, want %v", got, a*(1+e))
	}
}

func TestKeplerianPolarOrbitStaysInPlane(t *testing.T) {
	// Inclination π/2 with zero node and periapsis tips the orbit into the
	// X-Z plane.
	k := NewKeplerian(0.1, 150, math.Pi/2, 0, 0, 0, 1048)
	for i := 0; i < 16; i++ {
		hours := float64(i) / 16 * k.Period()
		if got := k.OffsetAt(hours); math.Abs(got.Y) > 1e-6 {
			t.Errorf("OffsetAt(%v).Y = %v, want 0 for a polar orbit", hours, got.Y)
		}
	}
}

func TestKeplerianRejectsBadElements(t *testing.T) {
	cases := []struct {
		name                string
		eccentricity, a, mass float64
	}{
		{"eccentricity 1", 1.0, 100, 1048},
		{"negative eccentricity", -0.1, 100, 1048},
		{"zero semi-major axis", 0.1, 0, 1048},
		{"negative semi-major axis", 0.1, -5, 1048},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("NewKeplerian did not panic")
				}
			}()
			NewKeplerian(c.eccentricity, c.a, 0, 0, 0, 0, c.mass)
		})
	}
}
