// Package artifexian procedurally generates star systems: stars placed in a
// galactic-disk density model, planets walked outward and inward from each
// star's frost line, and moons packed into orbital corridors between the
// Roche and Hill limits.
package artifexian

import (
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Rand wraps a seedable PCG source with the draw primitives the generator
// needs: uniform floats over ranges, probability booleans, angles, and a
// PERT-like continuous distribution. For a fixed seed the draw sequence, and
// therefore the generated universe, is reproducible.
type Rand struct {
	rng    *xrand.Rand
	source xrand.Source
}

// NewRand returns a generator RNG seeded with the given value.
func NewRand(seed uint64) *Rand {
	source := xrand.NewSource(seed)
	return &Rand{
		rng:    xrand.New(source),
		source: source,
	}
}

// Uniform draws from [min, max).
func (r *Rand) Uniform(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// Bool is true with probability p.
func (r *Rand) Bool(p float64) bool {
	return r.rng.Float64() < p
}

// Angle draws an angle from [0, 2π).
func (r *Rand) Angle() float64 {
	return r.Uniform(0, 2*math.Pi)
}

// Degrees draws an angle uniformly from [minDeg, maxDeg) and returns radians.
func (r *Rand) Degrees(minDeg, maxDeg float64) float64 {
	return r.Uniform(minDeg, maxDeg) * math.Pi / 180.0
}

// PERT draws from a PERT distribution over [min, max) with the given mode,
// expressed as the standard four-parameter Beta scaling.
func (r *Rand) PERT(min, max, mode float64) float64 {
	alpha := 1 + 4*(mode-min)/(max-min)
	beta := 1 + 4*(max-mode)/(max-min)
	b := distuv.Beta{Alpha: alpha, Beta: beta, Src: r.source}
	return min + b.Rand()*(max-min)
}
