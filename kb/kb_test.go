package kb

import (
	"context"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/core"
)

func catalogFixture(t *testing.T) (*Catalog, *core.Observatory, *core.Observatory) {
	t.Helper()
	u := core.NewUniverse()
	root := u.NewBody(core.NoBody, core.NewFixed(r3.Vec{}))
	planet := u.NewBody(root, core.NewFixed(r3.Vec{X: 499}))
	if err := u.HydrateAll(); err != nil {
		t.Fatal(err)
	}

	alpha := core.NewObservatory(u, planet, 45, 0, "alpha", nil, nil)
	beta := core.NewObservatory(u, planet, -45, 90, "beta", nil, nil)

	c := NewCatalog()
	for _, o := range []*core.Observatory{alpha, beta} {
		if err := c.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	return c, alpha, beta
}

func TestCatalogAddAndGet(t *testing.T) {
	c, alpha, _ := catalogFixture(t)

	if got := c.Get("alpha"); got != alpha {
		t.Errorf("Get(alpha) = %p, want %p", got, alpha)
	}
	if got := c.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
	if err := c.Add(alpha); err == nil {
		t.Error("Add accepted a duplicate name")
	}
}

func TestCatalogListIsSorted(t *testing.T) {
	c, alpha, beta := catalogFixture(t)

	names := c.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Names() = %v, want [alpha beta]", names)
	}
	list := c.List()
	if len(list) != 2 || list[0] != alpha || list[1] != beta {
		t.Errorf("List() not in name order")
	}
}

func TestCatalogWriteStoresLatestSky(t *testing.T) {
	c, _, _ := catalogFixture(t)
	ctx := context.Background()

	if _, ok := c.LatestSky("alpha"); ok {
		t.Fatal("LatestSky reported a sky before any write")
	}

	batch := []core.LocalObservation{{Body: 1, Name: "0", Coord: core.Spherical{Radius: 499}}}
	if err := c.Write(ctx, "alpha", 10, batch); err != nil {
		t.Fatal(err)
	}
	if err := c.Write(ctx, "alpha", 20, nil); err != nil {
		t.Fatal(err)
	}

	sky, ok := c.LatestSky("alpha")
	if !ok {
		t.Fatal("no sky after writes")
	}
	if sky.Hours != 20 || !sky.Degraded {
		t.Errorf("latest sky = %+v, want hours 20, degraded", sky)
	}

	if err := c.Write(ctx, "nowhere", 0, nil); err == nil {
		t.Error("Write accepted an unregistered observatory")
	}
}

func TestCatalogWriteCopiesBatch(t *testing.T) {
	c, _, _ := catalogFixture(t)
	batch := []core.LocalObservation{{Body: 1, Name: "0"}}
	if err := c.Write(context.Background(), "alpha", 5, batch); err != nil {
		t.Fatal(err)
	}
	batch[0].Name = "mutated"

	sky, _ := c.LatestSky("alpha")
	if sky.Bodies[0].Name != "0" {
		t.Error("catalog stored an aliased batch; mutation leaked in")
	}
}

func TestCatalogSubscribe(t *testing.T) {
	c, _, _ := catalogFixture(t)

	var events []Event
	unsubscribe := c.Subscribe(func(e Event) { events = append(events, e) })

	if err := c.Write(context.Background(), "beta", 7, nil); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if e := events[0]; e.Type != EventSkyUpdated || e.Observatory != "beta" || e.Hours != 7 {
		t.Errorf("event = %+v", e)
	}

	unsubscribe()
	if err := c.Write(context.Background(), "beta", 8, nil); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("unsubscribed callback still fired: %d events", len(events))
	}
}

func TestCatalogUnsubscribeOutOfOrder(t *testing.T) {
	c, _, _ := catalogFixture(t)

	var first, second, third int
	unsubFirst := c.Subscribe(func(Event) { first++ })
	unsubSecond := c.Subscribe(func(Event) { second++ })
	c.Subscribe(func(Event) { third++ })

	// Removing an earlier subscriber must not shift which callback a later
	// unsubscribe removes.
	unsubFirst()
	unsubSecond()
	unsubFirst() // repeat is a no-op

	if err := c.Write(context.Background(), "beta", 1, nil); err != nil {
		t.Fatal(err)
	}
	if first != 0 || second != 0 {
		t.Errorf("unsubscribed callbacks fired: first=%d second=%d", first, second)
	}
	if third != 1 {
		t.Errorf("remaining callback fired %d times, want 1", third)
	}
}
