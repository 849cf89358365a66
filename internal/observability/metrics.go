package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GeneratorCollector bundles Prometheus metrics for procedural universe
// generation and provides a ready-to-serve /metrics handler.
type GeneratorCollector struct {
	gatherer prometheus.Gatherer

	StarsGenerated     prometheus.Counter
	PlanetsGenerated   *prometheus.CounterVec
	MoonsGenerated     *prometheus.CounterVec
	MoonsSkipped       prometheus.Counter
	GenerationDuration prometheus.Histogram
	UniverseBodies     prometheus.Gauge
	UniverseObservers  prometheus.Gauge
}

// NewGeneratorCollector registers generator Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewGeneratorCollector(reg prometheus.Registerer) (*GeneratorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	stars, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generator_stars_total",
		Help: "Total number of stars generated.",
	}), "generator_stars_total")
	if err != nil {
		return nil, err
	}

	planets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_planets_total",
		Help: "Total number of planets generated, labeled by planet class.",
	}, []string{"class"})
	planets, err = registerCounterVec(reg, planets, "generator_planets_total")
	if err != nil {
		return nil, err
	}

	moons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_moons_total",
		Help: "Total number of moons generated, labeled by moon class.",
	}, []string{"class"})
	moons, err = registerCounterVec(reg, moons, "generator_moons_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generator_moons_skipped_total",
		Help: "Moon attempts abandoned because no orbital slot cleared the Roche and Hill limits.",
	}), "generator_moons_skipped_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generator_duration_seconds",
		Help:    "Wall time of full universe generation runs.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
	duration, err = registerHistogram(reg, duration, "generator_duration_seconds")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "universe_bodies",
		Help: "Number of bodies in the most recently generated or loaded universe.",
	}), "universe_bodies")
	if err != nil {
		return nil, err
	}

	observers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "universe_observatories",
		Help: "Number of observatories in the most recently generated or loaded universe.",
	}), "universe_observatories")
	if err != nil {
		return nil, err
	}

	return &GeneratorCollector{
		gatherer:           gatherer,
		StarsGenerated:     stars,
		PlanetsGenerated:   planets,
		MoonsGenerated:     moons,
		MoonsSkipped:       skipped,
		GenerationDuration: duration,
		UniverseBodies:     bodies,
		UniverseObservers:  observers,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GeneratorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncStars counts one generated star.
func (c *GeneratorCollector) IncStars() {
	if c == nil || c.StarsGenerated == nil {
		return
	}
	c.StarsGenerated.Inc()
}

// IncPlanets counts one generated planet of the given class.
func (c *GeneratorCollector) IncPlanets(class string) {
	if c == nil || c.PlanetsGenerated == nil {
		return
	}
	c.PlanetsGenerated.WithLabelValues(class).Inc()
}

// IncMoons counts one generated moon of the given class.
func (c *GeneratorCollector) IncMoons(class string) {
	if c == nil || c.MoonsGenerated == nil {
		return
	}
	c.MoonsGenerated.WithLabelValues(class).Inc()
}

// IncMoonsSkipped counts a moon attempt that found no valid orbital slot.
func (c *GeneratorCollector) IncMoonsSkipped() {
	if c == nil || c.MoonsSkipped == nil {
		return
	}
	c.MoonsSkipped.Inc()
}

// ObserveGeneration records the duration of one full generation run.
func (c *GeneratorCollector) ObserveGeneration(d time.Duration) {
	if c == nil || c.GenerationDuration == nil {
		return
	}
	c.GenerationDuration.Observe(d.Seconds())
}

// SetUniverseCounts updates the body and observatory gauges.
func (c *GeneratorCollector) SetUniverseCounts(bodies, observatories int) {
	if c == nil {
		return
	}
	if c.UniverseBodies != nil {
		c.UniverseBodies.Set(float64(bodies))
	}
	if c.UniverseObservers != nil {
		c.UniverseObservers.Set(float64(observatories))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
