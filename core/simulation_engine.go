package core

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/stellar-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-simulator/internal/observability"
)

// ObservationSink receives one horizon-filtered observation batch per
// (observatory, time) pair. Implementations live outside the core: file
// writers, HTTP responders, render pipelines.
type ObservationSink interface {
	Write(ctx context.Context, observatory string, hours float64, obs []LocalObservation) error
}

// SimulationEngine sequences simulation time steps over a set of
// observatories. Observation is an embarrassingly-parallel map: per step, one
// job per observatory is fanned out over a fixed worker pool, each touching
// only the shared read-only tree. No observatory mutates the universe.
type SimulationEngine struct {
	Universe      *Universe
	Observatories []*Observatory
	Sink          ObservationSink

	workers int
	log     logging.Logger
	metrics *observability.ObservationCollector

	tickListeners []func(float64)
}

// EngineOption customises a SimulationEngine.
type EngineOption func(*SimulationEngine)

// WithWorkers sets the observation worker pool size. Values below one fall
// back to the default.
func WithWorkers(n int) EngineOption {
	return func(e *SimulationEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(log logging.Logger) EngineOption {
	return func(e *SimulationEngine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObservationMetrics attaches an observation metrics collector.
func WithObservationMetrics(c *observability.ObservationCollector) EngineOption {
	return func(e *SimulationEngine) { e.metrics = c }
}

// NewSimulationEngine builds an engine over a universe, its observatories,
// and an output sink.
func NewSimulationEngine(u *Universe, observatories []*Observatory, sink ObservationSink, opts ...EngineOption) *SimulationEngine {
	e := &SimulationEngine{
		Universe:      u,
		Observatories: observatories,
		Sink:          sink,
		workers:       4,
		log:           logging.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterTickListener registers a callback invoked after every completed
// time step with the step's simulation hour.
func (e *SimulationEngine) RegisterTickListener(fn func(float64)) {
	e.tickListeners = append(e.tickListeners, fn)
}

type observeJob struct {
	observatory *Observatory
	hours       float64
}

// Run executes the given simulation times in order. Within one step all
// observatories are observed in parallel; steps themselves are sequential so
// sinks see time move monotonically. Returns early on context cancellation;
// individual observation failures degrade to empty batches and never abort
// the run.
func (e *SimulationEngine) Run(ctx context.Context, times []float64) error {
	tracer := otel.Tracer("stellar-simulator/core")
	for _, hours := range times {
		if err := ctx.Err(); err != nil {
			return err
		}

		stepCtx, span := tracer.Start(ctx, "simulation.step")
		span.SetAttributes(
			attribute.Float64("sim.hours", hours),
			attribute.Int("sim.observatories", len(e.Observatories)),
		)
		e.runStep(stepCtx, hours)
		span.End()

		e.metrics.IncSteps()
		for _, fn := range e.tickListeners {
			fn(hours)
		}
	}
	return nil
}

// runStep fans one step's observations out over the worker pool.
func (e *SimulationEngine) runStep(ctx context.Context, hours float64) {
	jobs := make(chan observeJob, e.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				e.observeOne(ctx, job)
			}
		}()
	}

	for _, o := range e.Observatories {
		select {
		case jobs <- observeJob{observatory: o, hours: hours}:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (e *SimulationEngine) observeOne(ctx context.Context, job observeJob) {
	start := time.Now()
	obs := job.observatory.Observe(job.hours)
	e.metrics.ObserveBatch(len(obs), time.Since(start))
	// A degraded observation comes back nil; an empty sky is a non-nil empty
	// slice.
	if obs == nil {
		e.metrics.IncDegraded()
	}

	if e.Sink == nil {
		return
	}
	if err := e.Sink.Write(ctx, job.observatory.Name(), job.hours, obs); err != nil {
		e.metrics.IncSinkErrors()
		e.log.Warn(ctx, "observation sink write failed",
			logging.String("observatory", job.observatory.Name()),
			logging.Float64("hours", job.hours),
			logging.String("error", err.Error()),
		)
	}
}
