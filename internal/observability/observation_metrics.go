package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ObservationCollector exposes Prometheus metrics for the observation phase
// of a simulation run.
type ObservationCollector struct {
	gatherer prometheus.Gatherer

	ObservationsTotal prometheus.Counter
	VisibleBodies     prometheus.Histogram
	ObserveDuration   prometheus.Histogram
	DegradedTotal     prometheus.Counter
	SinkErrorsTotal   prometheus.Counter
	StepsCompleted    prometheus.Counter
}

// NewObservationCollector registers observation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewObservationCollector(reg prometheus.Registerer) (*ObservationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	total, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "observations_total",
		Help: "Total number of (observatory, time) observations computed.",
	}), "observations_total")
	if err != nil {
		return nil, err
	}

	visible := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "observation_visible_bodies",
		Help:    "Number of bodies above the horizon per observation.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	visible, err = registerHistogram(reg, visible, "observation_visible_bodies")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "observation_duration_seconds",
		Help:    "Latency of a single observatory observation.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	duration, err = registerHistogram(reg, duration, "observation_duration_seconds")
	if err != nil {
		return nil, err
	}

	degraded, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "observations_degraded_total",
		Help: "Observations that degraded to an empty result after a traversal failure.",
	}), "observations_degraded_total")
	if err != nil {
		return nil, err
	}

	sinkErrors, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "observation_sink_errors_total",
		Help: "Failed writes to the observation output sink.",
	}), "observation_sink_errors_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_steps_total",
		Help: "Completed simulation time steps.",
	}), "simulation_steps_total")
	if err != nil {
		return nil, err
	}

	return &ObservationCollector{
		gatherer:          gatherer,
		ObservationsTotal: total,
		VisibleBodies:     visible,
		ObserveDuration:   duration,
		DegradedTotal:     degraded,
		SinkErrorsTotal:   sinkErrors,
		StepsCompleted:    steps,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ObservationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveBatch records one computed observation batch.
func (c *ObservationCollector) ObserveBatch(visible int, d time.Duration) {
	if c == nil {
		return
	}
	if c.ObservationsTotal != nil {
		c.ObservationsTotal.Inc()
	}
	if c.VisibleBodies != nil {
		c.VisibleBodies.Observe(float64(visible))
	}
	if c.ObserveDuration != nil {
		c.ObserveDuration.Observe(d.Seconds())
	}
}

// IncDegraded counts an observation that fell back to an empty result.
func (c *ObservationCollector) IncDegraded() {
	if c == nil || c.DegradedTotal == nil {
		return
	}
	c.DegradedTotal.Inc()
}

// IncSinkErrors counts a failed sink write.
func (c *ObservationCollector) IncSinkErrors() {
	if c == nil || c.SinkErrorsTotal == nil {
		return
	}
	c.SinkErrorsTotal.Inc()
}

// IncSteps counts a completed simulation step.
func (c *ObservationCollector) IncSteps() {
	if c == nil || c.StepsCompleted == nil {
		return
	}
	c.StepsCompleted.Inc()
}
