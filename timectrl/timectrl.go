// Package timectrl drives simulation time. Simulation time is a float64
// count of hours since the epoch; the controller advances it in fixed steps,
// either as a precomputed schedule for batch runs or live against a
// wall-clock ticker for interactive serving.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is read-only access to simulation time, so components that only
// consume it need not depend on the concrete controller.
type SimClock interface {
	// NowHours returns the current simulation time in hours.
	NowHours() float64
}

// TimeController advances simulation time and notifies registered listeners.
type TimeController struct {
	mu      sync.RWMutex
	current float64

	startHours float64
	stepHours  float64
	tick       time.Duration

	listeners []func(float64)
}

// NewTimeController constructs a controller starting at startHours that
// advances stepHours of simulation time per wall-clock tick.
func NewTimeController(startHours, stepHours float64, tick time.Duration) *TimeController {
	return &TimeController{
		current:    startHours,
		startHours: startHours,
		stepHours:  stepHours,
		tick:       tick,
	}
}

// NowHours returns the current simulation time. Implements SimClock.
func (tc *TimeController) NowHours() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// SetHours jumps simulation time to the given hour without notifying
// listeners.
func (tc *TimeController) SetHours(hours float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.current = hours
}

// StepHours returns the simulation hours advanced per step.
func (tc *TimeController) StepHours() float64 { return tc.stepHours }

// AddListener registers a callback invoked with the new simulation time on
// every advance. Listeners must be registered before Run starts.
func (tc *TimeController) AddListener(fn func(float64)) {
	tc.listeners = append(tc.listeners, fn)
}

// Schedule returns the batch schedule: the first steps simulation times the
// controller would visit, starting at its start hour.
func (tc *TimeController) Schedule(steps int) []float64 {
	times := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		times = append(times, tc.startHours+float64(i)*tc.stepHours)
	}
	return times
}

// Run advances simulation time live, one step per wall-clock tick, until
// steps advances have happened or the context is cancelled. A steps value of
// zero or less runs until cancellation. The returned channel closes when the
// run finishes.
func (tc *TimeController) Run(ctx context.Context, steps int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(tc.tick)
		defer ticker.Stop()

		for taken := 0; steps <= 0 || taken < steps; taken++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			tc.mu.Lock()
			tc.current += tc.stepHours
			now := tc.current
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(now)
			}
		}
	}()
	return done
}
