// Command observatory-server generates a universe, advances simulation time
// live, and serves the observatories' skies over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/stellar-simulator/artifexian"
	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-simulator/kb"
	"github.com/signalsfoundry/stellar-simulator/timectrl"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "HTTP address the observatory API listens on")
	seed := flag.Uint64("seed", 42123, "RNG seed for universe generation")
	stars := flag.Int("stars", 1000, "number of stars to generate")
	stepHours := flag.Float64("step-hours", 1.0, "simulation hours advanced per tick")
	tick := flag.Duration("tick", time.Second, "wall-clock interval between simulation steps")
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

	genMetrics, err := observability.NewGeneratorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise generator metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}
	obsMetrics, err := observability.NewObservationCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise observation metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}

	gen, err := artifexian.New(artifexian.Config{StarCount: *stars},
		artifexian.WithLogger(log),
		artifexian.WithMetrics(genMetrics),
	)
	if err != nil {
		log.Error(ctx, "invalid generator config", logging.String("error", err.Error()))
		os.Exit(1)
	}
	universe, observatories, err := gen.Generate(artifexian.NewRand(*seed))
	if err != nil {
		log.Error(ctx, "generation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	catalog := kb.NewCatalog()
	for _, o := range observatories {
		if err := catalog.Add(o); err != nil {
			log.Warn(ctx, "skipping observatory", logging.String("name", o.Name()), logging.String("error", err.Error()))
		}
	}

	engine := core.NewSimulationEngine(universe, observatories, catalog,
		core.WithWorkers(*workers),
		core.WithEngineLogger(log),
		core.WithObservationMetrics(obsMetrics),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tc := timectrl.NewTimeController(0, *stepHours, *tick)
	tc.AddListener(func(hours float64) {
		if err := engine.Run(runCtx, []float64{hours}); err != nil {
			log.Warn(runCtx, "simulation step aborted", logging.Float64("hours", hours), logging.String("error", err.Error()))
		}
	})
	done := tc.Run(runCtx, 0)

	api := &server{catalog: catalog, clock: tc, log: log}
	srv := &http.Server{
		Addr:    *httpAddr,
		Handler: api.routes(obsMetrics),
	}

	log.Info(ctx, "starting observatory server",
		logging.String("addr", *httpAddr),
		logging.Int("observatories", len(observatories)),
	)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "HTTP server exited", logging.String("error", err.Error()))
		}
	}()

	<-runCtx.Done()

	log.Info(ctx, "shutting down observatory server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	<-done
}

// server holds the HTTP API's dependencies.
type server struct {
	catalog *kb.Catalog
	clock   timectrl.SimClock
	log     logging.Logger
}

func (s *server) routes(metrics *observability.ObservationCollector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/observatories", s.handleObservatories)
	mux.HandleFunc("/observe", s.handleObserve)
	if metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Gatherer(), promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type observatoryInfo struct {
	Name         string  `json:"name"`
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"`
}

func (s *server) handleObservatories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list := s.catalog.List()
	out := make([]observatoryInfo, 0, len(list))
	for _, o := range list {
		lat, lon := o.LatLong()
		out = append(out, observatoryInfo{Name: o.Name(), LatitudeDeg: lat, LongitudeDeg: lon})
	}
	s.writeJSON(w, r, out)
}

type skyBody struct {
	Name        string         `json:"name"`
	Coord       core.Spherical `json:"coord"`
	AltitudeDeg float64        `json:"altitude_deg"`
}

type skyResponse struct {
	Observatory string    `json:"observatory"`
	Hours       float64   `json:"hours"`
	Degraded    bool      `json:"degraded,omitempty"`
	Bodies      []skyBody `json:"bodies"`
}

// handleObserve serves a sky. With ?t=<hours> it computes the sky at that
// simulation time; without it, it serves the latest catalog sky, falling back
// to an on-demand observation at the current simulation time if no step has
// completed yet.
func (s *server) handleObserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	observatory := s.catalog.Get(name)
	if observatory == nil {
		http.Error(w, "unknown observatory", http.StatusNotFound)
		return
	}

	var hours float64
	var degraded bool
	var bodies []core.LocalObservation
	if raw := r.URL.Query().Get("t"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid t parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
		bodies = observatory.Observe(hours)
		degraded = bodies == nil
	} else if sky, ok := s.catalog.LatestSky(name); ok {
		hours = sky.Hours
		bodies = sky.Bodies
		degraded = sky.Degraded
	} else {
		hours = s.clock.NowHours()
		bodies = observatory.Observe(hours)
		degraded = bodies == nil
	}

	log.Debug(ctx, "serving sky",
		logging.String("observatory", name),
		logging.Float64("hours", hours),
	)

	resp := skyResponse{
		Observatory: name,
		Hours:       hours,
		Degraded:    degraded,
		Bodies:      make([]skyBody, 0, len(bodies)),
	}
	for _, o := range bodies {
		resp.Bodies = append(resp.Bodies, skyBody{
			Name:        o.Name,
			Coord:       o.Coord,
			AltitudeDeg: o.Coord.AltitudeDegrees(),
		})
	}
	s.writeJSON(w, r, resp)
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn(r.Context(), "failed to encode response", logging.String("error", err.Error()))
	}
}
