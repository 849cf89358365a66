package artifexian

import (
	"math"
	"sort"

	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/model"
)

// lunaDensity is Earth's moon's density in Jupiter masses per cubic
// light-second.
const lunaDensity = 47.47

// sphereFactor converts r³·density to a mass.
const sphereFactor = 4.0 / (3.0 * math.Pi)

// moon is a body orbiting a planet, before it is committed to the tree.
// Mass is in Jupiter masses, radius and semi-major axis in light-seconds.
type moon struct {
	radius        float64
	mass          float64
	semiMajorAxis float64
	class         model.MoonClass
}

// newMoon carves out an orbit between the parent's Roche limit and the share
// of the Hill sphere not yet claimed by existing moons. Each moon reserves a
// corridor of twenty parent radii; a candidate landing inside a claimed
// corridor is shifted outward past it. Returns false when no room is left.
func newMoon(r *Rand, isMajor, isIcy bool, parent *planet, hillLimit float64, existing []*moon) (*moon, bool) {
	density := lunaDensity * r.Uniform(0.95, 1.05)
	if isIcy {
		// 1-2 g/cm³
		density = r.Uniform(14.195, 28.39)
	}

	var radius, limit float64
	var class model.MoonClass
	if isMajor {
		radius = r.Uniform(0.001001, parent.radius*0.75)
		limit = hillLimit
		if parent.class != model.PlanetGasGiant {
			// Rocky primaries hold major moons less tightly.
			limit = hillLimit / 2.0
		}
		class = model.MoonMajorRocky
		if isIcy {
			class = model.MoonMajorIcy
		}
	} else {
		radius = model.KilometersToLightSeconds(r.Uniform(200.0, 300.0))
		limit = hillLimit
		class = model.MoonMinorRocky
		if isIcy {
			class = model.MoonMinorIcy
		}
	}

	mass := sphereFactor * radius * radius * radius * density
	// The margin keeps an orbit with eccentricity up to 0.001 clear of the
	// Roche limit at periapsis.
	rocheLimit := radius * math.Cbrt(2.0*parent.mass/mass) / 0.996

	upper := limit - float64(len(existing))*parent.radius*20.0
	if upper <= rocheLimit {
		return nil, false
	}
	distance := r.Uniform(rocheLimit, upper)

	sorted := append([]*moon(nil), existing...)
	sort.Slice(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].semiMajorAxis) < math.Abs(sorted[j].semiMajorAxis)
	})
	for _, m := range sorted {
		// Shift past any claimed corridor. Corridors entirely below the
		// candidate still shift it; that keeps the draw uniform over the
		// unclaimed span.
		if m.semiMajorAxis-parent.radius*10.0 < distance {
			distance += parent.radius * 20.0
		}
	}

	return &moon{
		radius:        radius,
		mass:          mass,
		semiMajorAxis: distance,
		class:         class,
	}, true
}

// groupAMoons packs a belt of small shepherd moons just above the ring
// system of a gas giant, from roughly 2 to 2.5 parent radii.
func groupAMoons(r *Rand, parent *planet) []*moon {
	var result []*moon

	semiMajorAxis := (1.97 + r.Uniform(-0.2, 0.2)) * parent.radius
	for semiMajorAxis-2.0*0.01861 < 2.44*parent.radius {
		radius := model.KilometersToLightSeconds(r.Uniform(20.0, 200.0))
		mass := sphereFactor * radius * radius * radius *
			lunaDensity * r.Uniform(0.95, 1.05)

		result = append(result, &moon{
			radius:        radius,
			mass:          mass,
			semiMajorAxis: semiMajorAxis,
			class:         model.MoonMinorRocky,
		})
		semiMajorAxis += r.Uniform(0.00532, 0.0319)
	}
	return result
}

// groupBMoons spreads the large moons of a gas giant from 3 to 15 parent
// radii, one third of them icy.
func groupBMoons(r *Rand, parent *planet) []*moon {
	var result []*moon

	semiMajorAxis := 3.0 * parent.radius
	for semiMajorAxis <= 15.0*parent.radius {
		isIcy := r.Bool(0.333)
		density := lunaDensity
		if isIcy {
			density = 21.3
		}
		minMass := 0.001001 * 0.001001 * 0.001001 * sphereFactor * density
		mass := r.Uniform(minMass, 0.0001*parent.mass)
		radius := math.Cbrt(mass / (sphereFactor * lunaDensity))

		class := model.MoonMajorRocky
		if isIcy {
			class = model.MoonMajorIcy
		}
		result = append(result, &moon{
			radius:        radius,
			mass:          mass,
			semiMajorAxis: semiMajorAxis,
			class:         class,
		})
		semiMajorAxis += r.Uniform(parent.radius, 5.0*parent.radius)
	}
	return result
}

// toBody commits the moon to the tree under its planet's body. Orbits are
// expressed relative to the planet's pole; minor moons hug the equatorial
// plane while major ones may be captured on any inclination.
func (m *moon) toBody(r *Rand, gen *Artifexian, parent *planet, u *core.Universe, parentBody core.BodyID, hillLimit float64) core.BodyID {
	rocheLimit := m.radius * math.Cbrt(2.0*parent.mass/m.mass)

	var inclination, eccentricity float64
	if m.class.Major() {
		inclination = r.Uniform(0, math.Pi/2)
		lo, hi := 0.001, 0.5
		if parent.class != model.PlanetGasGiant {
			// Keep periapsis above the Roche limit and apoapsis inside
			// the Hill sphere.
			boundA := 1.0 - rocheLimit/m.semiMajorAxis
			boundB := hillLimit/m.semiMajorAxis - 1.0
			hi = math.Min(math.Min(boundA, boundB), 0.5)
		}
		eccentricity = lo
		if hi > lo {
			eccentricity = r.Uniform(lo, hi)
		}
	} else {
		inclination = r.Degrees(-5, 5)
		eccentricity = r.Uniform(0.0, 0.08)
	}

	dyn := core.NewKeplerian(
		eccentricity, m.semiMajorAxis,
		inclination+parent.pole.Polar,
		parent.pole.Azimuth+math.Pi/2+r.Degrees(-10, 10),
		r.Angle(), r.Angle(), parent.mass,
	)
	b := u.NewBody(parentBody, dyn)
	u.SetRadius(b, m.radius)
	gen.metrics.IncMoons(m.class.String())
	return b
}
