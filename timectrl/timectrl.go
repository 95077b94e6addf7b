package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is read-only access to frame time. Components that only need to
// know "when" depend on it rather than on the controller.
type Clock interface {
	// Now returns the current frame time.
	Now() time.Time
}

// Mode describes how the TimeController advances frame time.
type Mode int

const (
	// RealTime advances according to wall-clock time, one tick per Tick.
	RealTime Mode = iota
	// Accelerated steps by Tick as quickly as the listeners allow.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// Listener is called once per frame with the new frame time and the time
// elapsed since the previous frame.
type Listener func(now time.Time, delta time.Duration)

// TimeController drives the render loop: it owns frame time and notifies
// registered listeners on every tick.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	frames      uint64

	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current frame time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Frames returns how many ticks have been delivered since the last Start.
func (tc *TimeController) Frames() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.frames
}

// SetTime moves frame time without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Step advances frame time by one tick and notifies listeners synchronously.
func (tc *TimeController) Step() time.Time {
	return tc.advance(tc.Tick)
}

func (tc *TimeController) advance(delta time.Duration) time.Time {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(delta)
	tc.frames++
	now := tc.currentTime
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now, delta)
	}
	return now
}

// Start runs the controller for the specified duration in a separate
// goroutine; a non-positive duration runs until ctx is cancelled. The
// returned channel is closed when the controller finishes. A non-positive
// Tick produces no frames and the channel is closed immediately.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if tc.Tick <= 0 {
		close(done)
		return done
	}

	tc.mu.Lock()
	tc.currentTime = tc.StartTime
	tc.frames = 0
	tc.mu.Unlock()

	go func() {
		defer close(done)

		var tick <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			tick = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if (duration > 0 && elapsed >= duration) || ctx.Err() != nil {
				return
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			}

			tc.advance(tc.Tick)
			elapsed += tc.Tick
		}
	}()
	return done
}
