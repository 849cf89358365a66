package tests

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/stellar-simulator/artifexian"
	"github.com/signalsfoundry/stellar-simulator/core"
	"github.com/signalsfoundry/stellar-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-simulator/kb"
	"github.com/signalsfoundry/stellar-simulator/timectrl"
)

const (
	e2eSeed  = 42123
	e2eStars = 1000
)

func generateTestUniverse(t *testing.T) (*core.Universe, []*core.Observatory) {
	t.Helper()

	gen, err := artifexian.New(artifexian.Config{StarCount: e2eStars})
	if err != nil {
		t.Fatalf("artifexian.New: %v", err)
	}
	u, observatories, err := gen.Generate(artifexian.NewRand(e2eSeed))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return u, observatories
}

func TestGeneratedUniverseShape(t *testing.T) {
	u, observatories := generateTestUniverse(t)

	root := u.Root()
	if root == core.NoBody {
		t.Fatal("generated universe has no root")
	}
	stars := u.Children(root)
	if len(stars) != e2eStars {
		t.Fatalf("root children = %d, want %d", len(stars), e2eStars)
	}
	for _, s := range stars {
		if _, ok := u.DynamicOf(s).(*core.Fixed); !ok {
			t.Fatalf("star %d is not fixed in the galactic frame", s)
		}
	}

	// One star in a hundred hosts a planetary system and one observatory.
	withPlanets := 0
	for _, s := range stars {
		if len(u.Children(s)) > 0 {
			withPlanets++
		}
	}
	if withPlanets != e2eStars/100 {
		t.Errorf("stars with planets = %d, want %d", withPlanets, e2eStars/100)
	}
	if len(observatories) < 1 || len(observatories) > withPlanets {
		t.Errorf("observatories = %d, want between 1 and %d", len(observatories), withPlanets)
	}
	if u.Len() <= e2eStars {
		t.Errorf("universe has %d bodies, want more than the %d stars", u.Len(), e2eStars)
	}
}

func TestGenerateRunPersistRoundTrip(t *testing.T) {
	u, observatories := generateTestUniverse(t)

	catalog := kb.NewCatalog()
	for _, o := range observatories {
		if err := catalog.Add(o); err != nil {
			t.Fatalf("catalog.Add(%s): %v", o.Name(), err)
		}
	}

	var mu sync.Mutex
	events := make([]kb.Event, 0)
	unsubscribe := catalog.Subscribe(func(e kb.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	defer unsubscribe()

	engine := core.NewSimulationEngine(u, observatories, catalog,
		core.WithWorkers(4),
		core.WithEngineLogger(logging.Noop()),
	)

	times := timectrl.NewTimeController(0, 6, time.Second).Schedule(4)
	if err := engine.Run(context.Background(), times); err != nil {
		t.Fatalf("engine.Run: %v", err)
	}

	mu.Lock()
	gotEvents := len(events)
	mu.Unlock()
	if want := len(observatories) * len(times); gotEvents != want {
		t.Errorf("sky events = %d, want %d", gotEvents, want)
	}

	// The catalog holds the last scheduled step for every observatory.
	lastHours := times[len(times)-1]
	for _, name := range catalog.Names() {
		sky, ok := catalog.LatestSky(name)
		if !ok {
			t.Fatalf("no sky stored for %s", name)
		}
		if sky.Hours != lastHours {
			t.Errorf("%s latest sky at %v hours, want %v", name, sky.Hours, lastHours)
		}
		if sky.Degraded {
			t.Errorf("%s sky degraded", name)
		}
	}

	// Persist and reload, then check the reloaded universe shows every
	// observatory the same sky at an arbitrary time.
	var universeBuf, obsBuf bytes.Buffer
	if err := core.SaveUniverse(&universeBuf, u); err != nil {
		t.Fatalf("SaveUniverse: %v", err)
	}
	if err := core.SaveObservatories(&obsBuf, u, observatories); err != nil {
		t.Fatalf("SaveObservatories: %v", err)
	}

	reloaded, err := core.LoadUniverse(&universeBuf)
	if err != nil {
		t.Fatalf("LoadUniverse: %v", err)
	}
	if reloaded.Len() != u.Len() {
		t.Fatalf("reloaded universe has %d bodies, want %d", reloaded.Len(), u.Len())
	}
	reloadedObs, err := core.LoadObservatories(&obsBuf, reloaded, logging.Noop())
	if err != nil {
		t.Fatalf("LoadObservatories: %v", err)
	}
	if len(reloadedObs) != len(observatories) {
		t.Fatalf("reloaded observatories = %d, want %d", len(reloadedObs), len(observatories))
	}

	byName := make(map[string]*core.Observatory, len(reloadedObs))
	for _, o := range reloadedObs {
		byName[o.Name()] = o
	}
	const probeHours = 137.5
	for _, original := range observatories {
		twin, ok := byName[original.Name()]
		if !ok {
			t.Fatalf("observatory %s missing after reload", original.Name())
		}
		want := original.Observe(probeHours)
		got := twin.Observe(probeHours)
		if len(got) != len(want) {
			t.Fatalf("%s sees %d bodies after reload, want %d", original.Name(), len(got), len(want))
		}
		for i := range want {
			if got[i].Name != want[i].Name {
				t.Fatalf("%s body %d = %s after reload, want %s", original.Name(), i, got[i].Name, want[i].Name)
			}
			if !sphericalClose(got[i].Coord, want[i].Coord) {
				t.Errorf("%s body %s moved after reload: %+v vs %+v",
					original.Name(), want[i].Name, got[i].Coord, want[i].Coord)
			}
		}
	}
}

func TestSkyChangesWithPlanetRotation(t *testing.T) {
	u, observatories := generateTestUniverse(t)
	if len(observatories) == 0 {
		t.Fatal("no observatories generated")
	}
	o := observatories[0]

	if u.RotationOf(o.Body()) == nil {
		t.Fatal("observatory body has no axial rotation")
	}

	first := o.Observe(0)
	if first == nil {
		t.Fatal("observation degraded")
	}

	// Sample across a rotation period; the visible set or the azimuths must
	// move as the planet spins.
	changed := false
	for _, hours := range []float64{6, 12, 18, 24} {
		next := o.Observe(hours)
		if next == nil {
			t.Fatalf("observation at %v hours degraded", hours)
		}
		if len(next) != len(first) {
			changed = true
			break
		}
		for i := range next {
			if !sphericalClose(next[i].Coord, first[i].Coord) {
				changed = true
				break
			}
		}
		if changed {
			break
		}
	}
	if !changed {
		t.Error("sky identical across a full rotation sweep")
	}
}

func TestCatalogNamesAreUniqueAndSorted(t *testing.T) {
	_, observatories := generateTestUniverse(t)

	catalog := kb.NewCatalog()
	for _, o := range observatories {
		if err := catalog.Add(o); err != nil {
			t.Fatalf("duplicate observatory name %q", o.Name())
		}
	}
	names := catalog.Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("catalog names not sorted: %v", names)
	}
}

func sphericalClose(a, b core.Spherical) bool {
	const eps = 1e-6
	diff := func(x, y float64) float64 {
		if x > y {
			return x - y
		}
		return y - x
	}
	return diff(a.Radius, b.Radius) < eps*(1+a.Radius) &&
		diff(a.Polar, b.Polar) < eps &&
		diff(a.Azimuth, b.Azimuth) < eps
}
