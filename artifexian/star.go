package artifexian

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/model"
)

// milkyWayWidth is the radius budget for star placement, in light-seconds.
const milkyWayWidth = 3e12

// mainSequenceStar holds the derived properties a star system is built from.
// Masses are in Jupiter masses, distances in light-seconds.
type mainSequenceStar struct {
	mass  float64
	zones model.StellarZones
	// habitable means the star's mass allows water-based life somewhere in
	// its habitable zone over its lifetime.
	habitable bool
	// pole is the direction of true north above the star. It defines the
	// ecliptic plane its planets roughly orbit in.
	pole    core.Spherical
	planets []*planet
}

func newStar(r *Rand) *mainSequenceStar {
	return starFromSolarMass(r, r.Uniform(0.02, 16.0))
}

func newHabitableStar(r *Rand) *mainSequenceStar {
	return starFromSolarMass(r, r.Uniform(0.6, 1.4))
}

// starFromSolarMass derives the zones from a mass-luminosity relation of
// L = M³. Mass is in solar masses here, unlike everywhere else.
func starFromSolarMass(r *Rand, solarMass float64) *mainSequenceStar {
	sqrtLum := math.Sqrt(solarMass * solarMass * solarMass)
	return &mainSequenceStar{
		mass: model.SolarMassesToJupiterMasses(solarMass),
		zones: model.StellarZones{
			Habitable: model.Zone{
				Inner: model.AUToLightSeconds(0.95 * sqrtLum),
				Outer: model.AUToLightSeconds(1.37 * sqrtLum),
			},
			Planetary: model.Zone{
				Inner: model.AUToLightSeconds(0.1 * solarMass),
				Outer: model.AUToLightSeconds(40.0 * solarMass),
			},
			FrostLine: model.AUToLightSeconds(4.85 * sqrtLum),
		},
		habitable: solarMass >= 0.6 && solarMass < 1.4,
		pole:      core.Spherical{Radius: 1, Polar: r.Angle(), Azimuth: r.Angle()},
		planets:   nil,
	}
}

// allowedHeight is the permitted deviation above or below the galactic
// reference plane for a star at the given cylindrical radius. The profile is
// Gaussian-like: dense near the plane in the core, thinning outward.
func allowedHeight(radius float64) float64 {
	const sigma = 40963.2174964452
	maximum := math.Pow(2600.0/(math.Sqrt(2*math.Pi)*sigma), radius*radius/(2*sigma*sigma))
	return model.ParsecsToLightSeconds(maximum)
}

// position places the star in the galactic disk. Inside 5e11 ls stars fill a
// featureless bulge; beyond it they cluster into two spiral arms half a turn
// apart, winding one and a half turns from the core to the rim.
func (s *mainSequenceStar) position(r *Rand) r3.Vec {
	radius := math.Abs(r.PERT(-1, 1, 0) * milkyWayWidth)
	height := r.PERT(-1, 1, 0) * allowedHeight(radius)

	var theta float64
	if radius > 5e11 {
		arm := r.PERT(-1, 1, 0) * 0.25
		if !r.Bool(0.5) {
			arm += 0.5
		}
		theta = 2 * math.Pi * (arm + 1.0 + radius*1.352/milkyWayWidth)
	} else {
		theta = r.Angle()
	}

	return r3.Vec{
		X: radius * math.Cos(theta),
		Y: radius * math.Sin(theta),
		Z: height,
	}
}

// toBody adds the star and its planets to the tree. Stars use Fixed dynamics:
// their galactic orbital periods are on the order of millions of years, so
// over observational timescales they do not move. If one of the planets is
// habitable, an observatory is founded on it at the reference meridian.
func (s *mainSequenceStar) toBody(r *Rand, gen *Artifexian, u *core.Universe, root core.BodyID) (core.BodyID, *core.Observatory) {
	b := u.NewBody(root, core.NewFixed(s.position(r)))

	var observatory *core.Observatory
	for _, p := range s.planets {
		pb := p.toBody(r, gen, s, u, b)
		if p.class == model.PlanetHabitable {
			observatory = core.NewObservatory(u, pb, 0, 0, "", nil, gen.log)
		}
	}
	return b, observatory
}
