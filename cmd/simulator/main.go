// Command simulator generates (or loads) a universe and runs a batch of
// observation steps, emitting one JSON line per observatory per step.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/stellar-simulator/artifexian"
	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-simulator/timectrl"
)

// j2000 is the Julian day of the J2000 epoch; simulation hour zero.
const j2000 = 2451545.0

func main() {
	seed := flag.Uint64("seed", 42123, "RNG seed for universe generation")
	stars := flag.Int("stars", 1000, "number of stars to generate")
	steps := flag.Int("steps", 24, "number of observation steps to run")
	stepHours := flag.Float64("step-hours", 1.0, "simulation hours per step")
	epoch := flag.String("epoch", "", "observation start time (RFC3339); hours since J2000 when set, zero otherwise")
	universeIn := flag.String("universe", "", "load the universe from this JSON file instead of generating")
	observatoriesIn := flag.String("observatories", "", "load observatories from this JSON file (requires -universe)")
	universeOut := flag.String("save-universe", "", "write the universe to this JSON file")
	observatoriesOut := flag.String("save-observatories", "", "write the observatories to this JSON file")
	out := flag.String("out", "-", "observation output file, JSON lines; - for stdout")
	workers := flag.Int("workers", 4, "observation worker pool size")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	universe, observatories := buildUniverse(ctx, log, *universeIn, *observatoriesIn, *seed, *stars)

	if *universeOut != "" {
		saveTo(ctx, log, *universeOut, func(w io.Writer) error {
			return core.SaveUniverse(w, universe)
		})
	}
	if *observatoriesOut != "" {
		saveTo(ctx, log, *observatoriesOut, func(w io.Writer) error {
			return core.SaveObservatories(w, universe, observatories)
		})
	}

	startHours := 0.0
	if *epoch != "" {
		t, err := time.Parse(time.RFC3339, *epoch)
		if err != nil {
			log.Error(ctx, "invalid -epoch", logging.String("value", *epoch), logging.String("error", err.Error()))
			os.Exit(1)
		}
		startHours = hoursSinceJ2000(t)
	}

	sink, closeSink := openSink(ctx, log, *out)
	defer closeSink()

	engine := core.NewSimulationEngine(universe, observatories, sink,
		core.WithWorkers(*workers),
		core.WithEngineLogger(log),
	)

	tc := timectrl.NewTimeController(startHours, *stepHours, time.Second)
	times := tc.Schedule(*steps)

	log.Info(ctx, "starting observation run",
		logging.Int("steps", *steps),
		logging.Int("observatories", len(observatories)),
		logging.Float64("start_hours", startHours),
	)
	if err := engine.Run(ctx, times); err != nil {
		log.Error(ctx, "observation run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "observation run complete")
}

// buildUniverse loads the universe and observatories from files when a path
// is given, and generates them otherwise.
func buildUniverse(ctx context.Context, log logging.Logger, universeIn, observatoriesIn string, seed uint64, stars int) (*core.Universe, []*core.Observatory) {
	if universeIn != "" {
		f, err := os.Open(universeIn)
		if err != nil {
			log.Error(ctx, "failed to open universe file", logging.String("path", universeIn), logging.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		universe, err := core.LoadUniverse(f)
		if err != nil {
			log.Error(ctx, "failed to load universe", logging.String("path", universeIn), logging.String("error", err.Error()))
			os.Exit(1)
		}

		var observatories []*core.Observatory
		if observatoriesIn != "" {
			of, err := os.Open(observatoriesIn)
			if err != nil {
				log.Error(ctx, "failed to open observatories file", logging.String("path", observatoriesIn), logging.String("error", err.Error()))
				os.Exit(1)
			}
			defer of.Close()
			observatories, err = core.LoadObservatories(of, universe, log)
			if err != nil {
				log.Error(ctx, "failed to load observatories", logging.String("path", observatoriesIn), logging.String("error", err.Error()))
				os.Exit(1)
			}
		}
		return universe, observatories
	}

	metrics, err := observability.NewGeneratorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	gen, err := artifexian.New(artifexian.Config{StarCount: stars},
		artifexian.WithLogger(log),
		artifexian.WithMetrics(metrics),
	)
	if err != nil {
		log.Error(ctx, "invalid generator config", logging.String("error", err.Error()))
		os.Exit(1)
	}
	universe, observatories, err := gen.Generate(artifexian.NewRand(seed))
	if err != nil {
		log.Error(ctx, "generation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	return universe, observatories
}

func saveTo(ctx context.Context, log logging.Logger, path string, write func(io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Error(ctx, "failed to create output file", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()
	if err := write(f); err != nil {
		log.Error(ctx, "failed to write output file", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func openSink(ctx context.Context, log logging.Logger, path string) (*jsonlSink, func()) {
	if path == "-" {
		return newJSONLSink(os.Stdout), func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Error(ctx, "failed to create observation output", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	return newJSONLSink(f), func() { _ = f.Close() }
}

// hoursSinceJ2000 converts a wall-clock instant to simulation hours.
// Sub-second precision is truncated.
func hoursSinceJ2000(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return (jd - j2000) * 24.0
}

// jsonlSink writes one JSON line per observation batch.
type jsonlSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLSink(w io.Writer) *jsonlSink {
	return &jsonlSink{enc: json.NewEncoder(w)}
}

type skyBody struct {
	Name  string         `json:"name"`
	Coord core.Spherical `json:"coord"`
}

type skyRecord struct {
	Observatory string    `json:"observatory"`
	Hours       float64   `json:"hours"`
	Degraded    bool      `json:"degraded,omitempty"`
	Bodies      []skyBody `json:"bodies"`
}

func (s *jsonlSink) Write(_ context.Context, observatory string, hours float64, obs []core.LocalObservation) error {
	record := skyRecord{
		Observatory: observatory,
		Hours:       hours,
		Degraded:    obs == nil,
		Bodies:      make([]skyBody, 0, len(obs)),
	}
	for _, o := range obs {
		record.Bodies = append(record.Bodies, skyBody{Name: o.Name, Coord: o.Coord})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}
