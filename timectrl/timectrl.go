package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock exposes the current simulation time to components that must
// not read the wall clock directly.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances one tick per wall-clock tick interval.
	RealTime Mode = iota
	// Accelerated advances as fast as the listeners can keep up,
	// still stepping simulation time by exactly one tick per step.
	Accelerated
)

// TimeController drives simulation time and fans each tick out to the
// registered listeners in registration order. It implements SimClock.
//
// Listeners run on the controller's goroutine: one tick is fully
// dispatched before the next begins, so simulation time observed by a
// listener is monotonically non-decreasing.
type TimeController struct {
	startTime time.Time
	tick      time.Duration
	mode      Mode

	mu          sync.RWMutex
	currentTime time.Time

	listeners []func(time.Time)
}

// NewTimeController constructs a controller starting at start and
// stepping by tick.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		startTime:   start,
		tick:        tick,
		mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Tick returns the simulation step interval.
func (tc *TimeController) Tick() time.Duration { return tc.tick }

// AddListener registers a callback invoked on every tick. Must be
// called before Start.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller on its own goroutine until the context is
// cancelled or, when duration > 0, until that much simulation time has
// elapsed. The returned channel closes when the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.startTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		var ticker *time.Ticker
		if tc.mode == RealTime {
			ticker = time.NewTicker(tc.tick)
			defer ticker.Stop()
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			simTime = simTime.Add(tc.tick)
			elapsed += tc.tick

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(simTime)
			}
		}
	}()
	return done
}
