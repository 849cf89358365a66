package artifexian

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/model"
)

// planet is a body orbiting a star, before it is committed to the tree.
// Mass is in Jupiter masses, semi-major axis and radius in light-seconds.
type planet struct {
	semiMajorAxis float64
	mass          float64
	radius        float64
	class         model.PlanetClass
	// pole is the planet's true north, defining the plane its moons orbit in.
	pole core.Spherical
}

// newFrostLineGiant spawns the innermost gas giant just beyond the star's
// frost line. Every generated system has one; the rest of the system is
// walked outward and inward from it.
func newFrostLineGiant(r *Rand, star *mainSequenceStar) *planet {
	semiMajorAxis := star.zones.FrostLine + model.AUToLightSeconds(r.Uniform(1.0, 1.2))
	mass, radius := gasGiantParameters(r)
	return &planet{
		semiMajorAxis: semiMajorAxis,
		mass:          mass,
		radius:        radius,
		class:         model.PlanetGasGiant,
		pole:          core.Spherical{Radius: 1, Polar: r.Angle(), Azimuth: r.Angle()},
	}
}

func newGasGiant(r *Rand, semiMajorAxis float64) *planet {
	mass, radius := gasGiantParameters(r)
	return &planet{
		semiMajorAxis: semiMajorAxis,
		mass:          mass,
		radius:        radius,
		class:         model.PlanetGasGiant,
		pole:          core.Spherical{Radius: 1, Polar: r.Angle(), Azimuth: r.Angle()},
	}
}

func newTerrestrial(r *Rand, semiMajorAxis float64) *planet {
	mass, radius := terrestrialParameters(r)
	return &planet{
		semiMajorAxis: semiMajorAxis,
		mass:          mass,
		radius:        radius,
		class:         model.PlanetTerrestrial,
		pole:          core.Spherical{Radius: 1, Polar: r.Angle(), Azimuth: r.Angle()},
	}
}

// newHabitablePlanet places a world inside the star's habitable zone, with a
// slim margin at both edges so eccentricity never carries it across them.
// Returns false when the star cannot host one. The planet's pole is sampled
// near the star's pole: within 80 degrees of it, flipped 10% of the time.
func newHabitablePlanet(r *Rand, star *mainSequenceStar) (*planet, bool) {
	if !star.habitable {
		return nil, false
	}

	semiMajorAxis := r.Uniform(star.zones.Habitable.Inner/0.996, star.zones.Habitable.Outer/1.003)
	mass, radius := terrestrialParameters(r)

	polar := r.Degrees(-80, 80)
	if r.Bool(0.1) {
		polar += math.Pi
	}
	pole := core.Spherical{Radius: 1, Polar: polar, Azimuth: r.Angle()}.Vec()

	// Tilt the sampled pole so it is relative to the star's pole rather
	// than the universal axis.
	tilt := core.RotationFromTo(r3.Vec{Z: 1}, star.pole.Vec())
	pole = tilt.Rotate(pole)

	return &planet{
		semiMajorAxis: semiMajorAxis,
		mass:          mass,
		radius:        radius,
		class:         model.PlanetHabitable,
		pole:          core.SphericalFromVec(pole),
	}, true
}

// gasGiantParameters draws a mass from 10 Earth masses up to 13 Jupiter
// masses (the deuterium-burning limit) and a radius near Jupiter's. Giants
// above two Jupiter masses are degeneracy-supported and all end up close to
// the same radius.
func gasGiantParameters(r *Rand) (mass, radius float64) {
	mass = r.Uniform(model.EarthMassesToJupiterMasses(10.0), 13.0)
	if mass >= 2.0 {
		radius = 0.2333 * r.Uniform(0.98, 1.02)
	} else {
		radius = 0.2333 * r.Uniform(1.0, 1.9)
	}
	return mass, radius
}

// terrestrialParameters draws Earth-like mass and radius, clamping the radius
// so surface gravity stays between 0.4g and 1.6g.
func terrestrialParameters(r *Rand) (mass, radius float64) {
	m := r.Uniform(0.18, 3.5)
	rr := m * r.Uniform(
		math.Max(math.Sqrt(0.4/m), 0.5),
		math.Min(math.Sqrt(1.6/m), 1.5),
	)
	return model.EarthMassesToJupiterMasses(m), model.EarthRadiiToLightSeconds(rr)
}

// maxMinorMoons is how many minor moons a terrestrial or habitable world can
// hold, growing with its distance from the star as a fraction of the
// planetary zone.
func (p *planet) maxMinorMoons(planetaryZoneOuter float64) int {
	x := p.semiMajorAxis / planetaryZoneOuter
	return int(math.Floor(math.Pow(2, x) * x * 6.0))
}

// toBody commits the planet and its moons to the tree under the star's body.
func (p *planet) toBody(r *Rand, gen *Artifexian, star *mainSequenceStar, u *core.Universe, parent core.BodyID) core.BodyID {
	ascendingNode := star.pole.Azimuth + math.Pi/2 + r.Uniform(-math.Pi/8, math.Pi/8)/2
	inclination := star.pole.Polar + r.Degrees(-10, 10)

	var dyn *core.Keplerian
	switch p.class {
	case model.PlanetGasGiant:
		// Giants settle into the ecliptic more tightly than rocky worlds.
		giantInclination := star.pole.Polar + r.Degrees(-4, 4)
		dyn = core.NewKeplerian(
			r.Uniform(0.001, 0.1), p.semiMajorAxis,
			giantInclination, ascendingNode,
			r.Angle(), r.Angle(), star.mass,
		)
	case model.PlanetHabitable:
		// Cap eccentricity so neither apsis ever leaves the habitable zone.
		boundA := 1.0 - star.zones.Habitable.Inner/p.semiMajorAxis
		boundB := star.zones.Habitable.Outer/p.semiMajorAxis - 1.0
		hi := math.Min(math.Min(boundA, boundB), 0.2)
		eccentricity := 0.00001
		if hi > eccentricity {
			eccentricity = r.Uniform(0.00001, hi)
		}
		dyn = core.NewKeplerian(
			eccentricity, p.semiMajorAxis,
			inclination, r.Angle(),
			r.Angle(), r.Angle(), star.mass,
		)
	default:
		dyn = core.NewKeplerian(
			r.Uniform(0.0, 0.25), p.semiMajorAxis,
			inclination, r.Angle(),
			r.Angle(), r.Angle(), star.mass,
		)
	}

	// Moons must stay inside the Hill sphere at periapsis or the star
	// strips them away.
	hillLimit := p.semiMajorAxis * (1.0 - dyn.Eccentricity()) *
		math.Cbrt(p.mass/(3.0*(p.mass+star.mass)))

	b := u.NewBody(parent, dyn)
	u.SetRadius(b, p.radius)
	gen.metrics.IncPlanets(p.class.String())

	for _, m := range p.generateMoons(r, gen, star, hillLimit) {
		m.toBody(r, gen, p, u, b, hillLimit)
	}

	if p.class == model.PlanetHabitable {
		// A day between 12 and 36 hours, retrograde 20% of the time.
		polar := r.Degrees(0, 80)
		period := r.Uniform(12.0, 36.0)
		if r.Bool(0.2) {
			polar += 100.0 * math.Pi / 180.0
		}
		axis := core.Spherical{Radius: 1, Polar: polar, Azimuth: r.Angle()}.Vec()
		u.SetRotation(b, core.NewRotating(period, axis))
	}
	return b
}

// generateMoons fills the planet's orbital corridors. Gas giants get a ring
// shepherd belt (group A) and a spread of large captured moons (group B).
// Habitable worlds get one major moon plus minor companions; terrestrials
// only the minors.
func (p *planet) generateMoons(r *Rand, gen *Artifexian, star *mainSequenceStar, hillLimit float64) []*moon {
	var moons []*moon

	if p.class == model.PlanetGasGiant {
		moons = append(moons, groupAMoons(r, p)...)
		moons = append(moons, groupBMoons(r, p)...)
		return moons
	}

	majorBudget := 0
	if p.class == model.PlanetHabitable {
		majorBudget = 1
	}
	for i := 0; i < majorBudget; i++ {
		icy := r.Bool(0.1)
		m, ok := newMoon(r, true, icy, p, hillLimit, moons)
		if !ok {
			gen.metrics.IncMoonsSkipped()
			return moons
		}
		moons = append(moons, m)
	}
	for i := 0; i < p.maxMinorMoons(star.zones.Planetary.Outer); i++ {
		icy := r.Bool(0.1)
		m, ok := newMoon(r, false, icy, p, hillLimit, moons)
		if !ok {
			// Orbits are full.
			gen.metrics.IncMoonsSkipped()
			return moons
		}
		moons = append(moons, m)
	}
	return moons
}
