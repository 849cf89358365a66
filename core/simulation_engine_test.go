package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

type captureSink struct {
	mu     sync.Mutex
	hours  map[string][]float64
	nilObs int
	err    error
}

func newCaptureSink() *captureSink {
	return &captureSink{hours: make(map[string][]float64)}
}

func (s *captureSink) Write(_ context.Context, observatory string, hours float64, obs []LocalObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours[observatory] = append(s.hours[observatory], hours)
	if obs == nil {
		s.nilObs++
	}
	return s.err
}

func engineFixture(t *testing.T) (*Universe, []*Observatory) {
	t.Helper()
	u := NewUniverse()
	root := u.NewBody(NoBody, NewFixed(r3.Vec{}))
	planet := u.NewBody(root, NewKeplerian(0.1, 499, 0.2, 0.4, 0.6, 0.0, 1048))
	moon := u.NewBody(planet, NewKeplerian(0.05, 1.28, 0.0, 0.0, 0.0, 0.0, 0.003146))
	if err := u.HydrateAll(); err != nil {
		t.Fatal(err)
	}
	return u, []*Observatory{
		NewObservatory(u, planet, 45, 0, "alpha", nil, nil),
		NewObservatory(u, moon, -10, 120, "beta", nil, nil),
	}
}

func TestEngineWritesEveryPair(t *testing.T) {
	u, observatories := engineFixture(t)
	sink := newCaptureSink()
	engine := NewSimulationEngine(u, observatories, sink, WithWorkers(3))

	times := []float64{0, 1.5, 3, 4.5}
	if err := engine.Run(context.Background(), times); err != nil {
		t.Fatal(err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.hours) != len(observatories) {
		t.Fatalf("sink saw %d observatories, want %d", len(sink.hours), len(observatories))
	}
	for name, got := range sink.hours {
		if len(got) != len(times) {
			t.Fatalf("observatory %q wrote %d batches, want %d", name, len(got), len(times))
		}
		// Steps are sequential, so each observatory's writes arrive in time
		// order even though observatories within a step race.
		if !sort.Float64sAreSorted(got) {
			t.Errorf("observatory %q saw times out of order: %v", name, got)
		}
	}
}

func TestEngineTickListeners(t *testing.T) {
	u, observatories := engineFixture(t)
	engine := NewSimulationEngine(u, observatories, newCaptureSink())

	var ticks []float64
	engine.RegisterTickListener(func(hours float64) { ticks = append(ticks, hours) })

	times := []float64{2, 4, 8}
	if err := engine.Run(context.Background(), times); err != nil {
		t.Fatal(err)
	}
	if len(ticks) != len(times) {
		t.Fatalf("got %d ticks, want %d", len(ticks), len(times))
	}
	for i, want := range times {
		if ticks[i] != want {
			t.Errorf("tick %d = %v, want %v", i, ticks[i], want)
		}
	}
}

func TestEngineStopsOnCancel(t *testing.T) {
	u, observatories := engineFixture(t)
	sink := newCaptureSink()
	engine := NewSimulationEngine(u, observatories, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := engine.Run(ctx, []float64{0, 1, 2})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run on cancelled context = %v, want context.Canceled", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.hours) != 0 {
		t.Errorf("cancelled run still wrote %v", sink.hours)
	}
}

func TestEngineSurvivesSinkErrors(t *testing.T) {
	u, observatories := engineFixture(t)
	sink := newCaptureSink()
	sink.err = errors.New("disk full")
	engine := NewSimulationEngine(u, observatories, sink)

	if err := engine.Run(context.Background(), []float64{0, 1}); err != nil {
		t.Fatalf("Run = %v, want nil despite sink errors", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	for name, got := range sink.hours {
		if len(got) != 2 {
			t.Errorf("observatory %q wrote %d batches, want 2", name, len(got))
		}
	}
}

func TestEngineForwardsDegradedBatches(t *testing.T) {
	u, observatories := engineFixture(t)
	// An observatory with an ID the arena never minted degrades every
	// observation; the engine must keep running and forward the nil batch.
	broken := NewObservatory(u, BodyID(42), 0, 0, "broken", nil, nil)
	sink := newCaptureSink()
	engine := NewSimulationEngine(u, append(observatories, broken), sink)

	if err := engine.Run(context.Background(), []float64{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.nilObs != 3 {
		t.Errorf("sink saw %d degraded batches, want 3", sink.nilObs)
	}
	if len(sink.hours["alpha"]) != 3 {
		t.Errorf("healthy observatory wrote %d batches, want 3", len(sink.hours["alpha"]))
	}
}

func TestEngineNilSink(t *testing.T) {
	u, observatories := engineFixture(t)
	engine := NewSimulationEngine(u, observatories, nil)
	if err := engine.Run(context.Background(), []float64{0, 1}); err != nil {
		t.Fatal(err)
	}
}
