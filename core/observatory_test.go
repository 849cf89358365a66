package core

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// skyFixture puts an observer body at the origin with one body overhead
// (+Z) and one underfoot (-Z).
func skyFixture(t *testing.T) (u *Universe, home, overhead, underfoot BodyID) {
	t.Helper()
	u = NewUniverse()
	home = u.NewBody(NoBody, NewFixed(r3.Vec{}))
	overhead = u.NewBody(home, NewFixed(r3.Vec{Z: 10}))
	underfoot = u.NewBody(home, NewFixed(r3.Vec{Z: -10}))
	if err := u.HydrateAll(); err != nil {
		t.Fatal(err)
	}
	return u, home, overhead, underfoot
}

func TestObserveFiltersHorizon(t *testing.T) {
	u, home, overhead, underfoot := skyFixture(t)
	o := NewObservatory(u, home, 90, 0, "north", nil, nil)

	obs := o.Observe(0)
	if len(obs) != 1 {
		t.Fatalf("got %d visible bodies, want 1", len(obs))
	}
	if obs[0].Body != overhead {
		t.Errorf("visible body = %d, want %d", obs[0].Body, overhead)
	}
	if obs[0].Coord.Polar > 1e-9 {
		t.Errorf("overhead body at polar %v, want 0 (zenith)", obs[0].Coord.Polar)
	}
	if obs[0].Name != u.Name(overhead) {
		t.Errorf("observation name = %q, want %q", obs[0].Name, u.Name(overhead))
	}
	for _, entry := range obs {
		if entry.Body == underfoot {
			t.Error("body below the horizon leaked into the observation set")
		}
	}
}

func TestObserveOppositeHemisphere(t *testing.T) {
	u, home, _, underfoot := skyFixture(t)
	o := NewObservatory(u, home, -90, 0, "south", nil, nil)

	obs := o.Observe(0)
	if len(obs) != 1 || obs[0].Body != underfoot {
		t.Fatalf("southern observatory sees %v, want only body %d", obs, underfoot)
	}
}

func TestObserveAppliesSpin(t *testing.T) {
	u := NewUniverse()
	home := u.NewBody(NoBody, NewFixed(r3.Vec{}))
	star := u.NewBody(home, NewFixed(r3.Vec{X: 10}))
	if err := u.HydrateAll(); err != nil {
		t.Fatal(err)
	}
	// Equatorial observatory, body spinning about +Z with a 24 hour day.
	u.SetRotation(home, NewRotating(24, r3.Vec{Z: 1}))
	o := NewObservatory(u, home, 0, 0, "equator", nil, nil)

	// At t=0 the star is on the observatory's meridian (the local zenith).
	at0 := o.Observe(0)
	if len(at0) != 1 {
		t.Fatalf("at t=0: %d visible, want 1", len(at0))
	}
	if at0[0].Body != star {
		t.Fatalf("at t=0 body %d is visible, want star %d", at0[0].Body, star)
	}
	if alt := at0[0].Coord.AltitudeDegrees(); math.Abs(alt-90) > 1e-6 {
		t.Errorf("at t=0 the star is at altitude %v, want 90", alt)
	}

	// A quarter turn later it sits on the horizon; half a turn later it has
	// set entirely.
	at6 := o.Observe(6)
	if len(at6) == 1 {
		if alt := at6[0].Coord.AltitudeDegrees(); math.Abs(alt) > 1e-6 {
			t.Errorf("at t=6 the star is at altitude %v, want 0", alt)
		}
	}
	at12 := o.Observe(12)
	if len(at12) != 0 {
		t.Errorf("at t=12 the star is still visible: %v", at12)
	}
	if at12 == nil {
		t.Error("empty sky came back nil; nil is reserved for degraded observations")
	}
}

func TestObserveDegradesToNil(t *testing.T) {
	u, _, _, _ := skyFixture(t)
	// An observatory holding an ID the universe never minted trips the
	// arena's invariant panic; Observe must swallow it.
	o := NewObservatory(u, BodyID(99), 0, 0, "broken", nil, nil)

	if obs := o.Observe(0); obs != nil {
		t.Errorf("degraded observation = %v, want nil", obs)
	}

	// An unnamed observatory must degrade the same way: the recovery path
	// cannot derive a name from the tree that just failed.
	unnamed := NewObservatory(u, BodyID(99), 0, 0, "", nil, nil)
	if obs := unnamed.Observe(0); obs != nil {
		t.Errorf("unnamed degraded observation = %v, want nil", obs)
	}
}

func TestObservatoryName(t *testing.T) {
	u, home, overhead, _ := skyFixture(t)

	named := NewObservatory(u, home, 10, 20, "greenwich", nil, nil)
	if got := named.Name(); got != "greenwich" {
		t.Errorf("Name() = %q, want %q", got, "greenwich")
	}

	derived := NewObservatory(u, overhead, 10.5, -20.25, "", nil, nil)
	got := derived.Name()
	if !strings.HasPrefix(got, "0@") {
		t.Errorf("derived Name() = %q, want body path prefix \"0@\"", got)
	}
	if !strings.Contains(got, "10.50") || !strings.Contains(got, "-20.25") {
		t.Errorf("derived Name() = %q, want embedded coordinates", got)
	}
}

func TestConstellationLines(t *testing.T) {
	u, home, overhead, underfoot := skyFixture(t)
	extra := u.NewBody(home, NewFixed(r3.Vec{X: 3, Z: 10}))
	if err := u.HydrateAll(); err != nil {
		t.Fatal(err)
	}

	c := &Constellation{
		Name: "pair",
		Edges: []Edge{
			{A: overhead, B: extra},     // both above the horizon
			{A: overhead, B: underfoot}, // one endpoint set
		},
	}
	o := NewObservatory(u, home, 90, 0, "north", []*Constellation{c}, nil)

	obs := o.Observe(0)
	lines := o.ConstellationLines(obs)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: edges with a hidden endpoint must drop", len(lines))
	}
	if lines[0].A.Radius == 0 || lines[0].B.Radius == 0 {
		t.Error("line endpoints carry no coordinates")
	}
}
