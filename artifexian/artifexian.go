package artifexian

import (
	"context"
	"errors"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-simulator/model"
)

// ErrInvalidStarCount is returned when a Config asks for no stars at all.
var ErrInvalidStarCount = errors.New("artifexian: star count must be positive")

// Config controls a generation run.
type Config struct {
	// StarCount is how many stars to place. One in a hundred is
	// habitable-capable and gets a full planetary system; the rest are
	// bare stars, which keeps large universes affordable.
	StarCount int
}

// Validate reports whether the config can drive a generation run.
func (c Config) Validate() error {
	if c.StarCount <= 0 {
		return ErrInvalidStarCount
	}
	return nil
}

// Artifexian generates universes: a root the stars hang from, planetary
// systems around one star in a hundred, and an observatory on every
// habitable world.
type Artifexian struct {
	cfg     Config
	log     logging.Logger
	metrics *observability.GeneratorCollector
}

// Option customizes a generator.
type Option func(*Artifexian)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(a *Artifexian) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics attaches a generation metrics collector.
func WithMetrics(c *observability.GeneratorCollector) Option {
	return func(a *Artifexian) { a.metrics = c }
}

// New validates the config and returns a generator.
func New(cfg Config, opts ...Option) (*Artifexian, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Artifexian{
		cfg: cfg,
		log: logging.Noop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate builds a universe from the given RNG. The same seed always
// produces the same universe. The returned tree is hydrated and ready for
// observation.
func (a *Artifexian) Generate(r *Rand) (*core.Universe, []*core.Observatory, error) {
	start := time.Now()

	u := core.NewUniverse()
	root := u.NewBody(core.NoBody, core.NewFixed(r3.Vec{}))

	observatories := make([]*core.Observatory, 0, a.cfg.StarCount/100+1)
	for i := 0; i < a.cfg.StarCount; i++ {
		var star *mainSequenceStar
		if i%100 != 0 {
			// Skip planet generation to save memory.
			star = newStar(r)
		} else {
			star = newHabitableStar(r)
			star.planets = a.planPlanets(r, star)
		}

		_, observatory := star.toBody(r, a, u, root)
		a.metrics.IncStars()
		if observatory != nil {
			observatories = append(observatories, observatory)
		}
	}

	if err := u.HydrateAll(); err != nil {
		return nil, nil, err
	}

	a.metrics.ObserveGeneration(time.Since(start))
	a.metrics.SetUniverseCounts(u.Len(), len(observatories))
	a.log.Info(context.Background(), "generated universe",
		logging.Int("stars", a.cfg.StarCount),
		logging.Int("bodies", u.Len()),
		logging.Int("observatories", len(observatories)),
	)
	return u, observatories, nil
}

// planPlanets lays out a habitable-capable star's system. A gas giant is
// anchored just past the frost line; more giants walk outward from it and
// terrestrial worlds walk inward, each step scaling the distance by a factor
// in [1.4, 2). If the star supports a habitable planet it is slotted into
// the inward walk, displacing any terrestrial that would crowd it. Finally
// planets closer than 0.15 AU to an inner neighbour are dropped.
func (a *Artifexian) planPlanets(r *Rand, star *mainSequenceStar) []*planet {
	first := newFrostLineGiant(r, star)
	planets := []*planet{first}

	distance := first.semiMajorAxis * r.Uniform(1.4, 2.0)
	for star.zones.Planetary.Contains(distance) {
		planets = append(planets, newGasGiant(r, distance))
		distance *= r.Uniform(1.4, 2.0)
	}

	distance = first.semiMajorAxis / r.Uniform(1.4, 2.0)
	if habitable, ok := newHabitablePlanet(r, star); ok {
		added := false
		// No terrestrial may form within a factor of 1.4 of the
		// habitable orbit.
		exclusion := model.Zone{
			Inner: habitable.semiMajorAxis / 1.4,
			Outer: habitable.semiMajorAxis * 1.4,
		}
		for star.zones.Planetary.Contains(distance) {
			switch {
			case !added && exclusion.Contains(distance):
				// Too close; the habitable world takes this slot.
				planets = append(planets, habitable)
				distance = habitable.semiMajorAxis
				added = true
			case !added && distance < habitable.semiMajorAxis:
				// The walk stepped over the habitable orbit entirely.
				planets = append(planets, habitable, newTerrestrial(r, distance))
				added = true
			default:
				planets = append(planets, newTerrestrial(r, distance))
			}
			distance /= r.Uniform(1.4, 2.0)
		}
	} else {
		for star.zones.Planetary.Contains(distance) {
			planets = append(planets, newTerrestrial(r, distance))
			distance /= r.Uniform(1.4, 2.0)
		}
	}

	sort.SliceStable(planets, func(i, j int) bool {
		return planets[i].semiMajorAxis < planets[j].semiMajorAxis
	})

	filtered := make([]*planet, 0, len(planets))
	filtered = append(filtered, planets[0])
	previous := planets[0]
	for _, p := range planets[1:] {
		if previous.semiMajorAxis < p.semiMajorAxis-model.AUToLightSeconds(0.15) {
			filtered = append(filtered, p)
			previous = p
		}
	}
	return filtered
}
