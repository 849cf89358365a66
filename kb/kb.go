// Package kb is the observatory catalog: a thread-safe registry of
// observatories and the latest sky each one has produced. It implements
// core.ObservationSink, so plugging a catalog into the simulation engine
// keeps it current as steps complete.
package kb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/stellar-simulator/core"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventSkyUpdated EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type        EventType
	Observatory string
	Hours       float64
}

// Sky is the most recent observation batch for one observatory. Degraded
// marks a batch that failed and came back empty rather than a sky that is
// genuinely empty.
type Sky struct {
	Hours    float64
	Bodies   []core.LocalObservation
	Degraded bool
}

// Catalog is an in-memory, thread-safe store of observatories and their
// latest skies.
type Catalog struct {
	mu sync.RWMutex

	observatories map[string]*core.Observatory
	skies         map[string]Sky

	subs    []subscriber
	nextSub int
}

// subscriber pairs a callback with the token its unsubscribe closure removes
// it by, so earlier unsubscribes cannot shift which callback a later one hits.
type subscriber struct {
	id int
	fn func(Event)
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		observatories: make(map[string]*core.Observatory),
		skies:         make(map[string]Sky),
	}
}

// Add registers an observatory under its name. It returns an error if the
// name is already taken.
func (c *Catalog) Add(o *core.Observatory) error {
	name := o.Name()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.observatories[name]; exists {
		return fmt.Errorf("observatory %q already registered", name)
	}
	c.observatories[name] = o
	return nil
}

// Get returns the observatory with the given name, or nil if not found.
func (c *Catalog) Get(name string) *core.Observatory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observatories[name]
}

// Names returns the registered observatory names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.observatories))
	for name := range c.observatories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns a snapshot of all observatories, ordered by name.
func (c *Catalog) List() []*core.Observatory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.observatories))
	for name := range c.observatories {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make([]*core.Observatory, 0, len(names))
	for _, name := range names {
		res = append(res, c.observatories[name])
	}
	return res
}

// LatestSky returns the most recent sky for the observatory, if any batch
// has been written yet.
func (c *Catalog) LatestSky(name string) (Sky, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sky, ok := c.skies[name]
	return sky, ok
}

// Write stores an observation batch as the observatory's latest sky and
// notifies subscribers. It implements core.ObservationSink. Writing for an
// unregistered observatory is an error.
func (c *Catalog) Write(_ context.Context, observatory string, hours float64, obs []core.LocalObservation) error {
	c.mu.Lock()
	if _, ok := c.observatories[observatory]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("observatory %q not registered", observatory)
	}

	sky := Sky{Hours: hours, Degraded: obs == nil}
	if obs != nil {
		sky.Bodies = append([]core.LocalObservation(nil), obs...)
	}
	c.skies[observatory] = sky

	event := Event{
		Type:        EventSkyUpdated,
		Observatory: observatory,
		Hours:       hours,
	}
	subs := append([]subscriber{}, c.subs...)
	c.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub.fn(event)
	}
	return nil
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}
