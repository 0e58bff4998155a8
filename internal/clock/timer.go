// Package clock drives a sampler from wall-clock simulation time.
package clock

import (
	"sync"
	"time"
)

// Timer tracks elapsed simulation time. It starts paused.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	start   time.Time
	elapsed time.Duration
	paused  bool
}

// NewTimer creates a paused timer at zero.
func NewTimer() *Timer {
	return newTimerWithClock(time.Now)
}

func newTimerWithClock(now func() time.Time) *Timer {
	return &Timer{
		now:    now,
		start:  now(),
		paused: true,
	}
}

// Start starts or resumes the timer. Starting a running timer is a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		t.start = t.now().Add(-t.elapsed)
		t.paused = false
	}
}

// Pause freezes the elapsed time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		t.elapsed = t.now().Sub(t.start)
		t.paused = true
	}
}

// Reset returns the timer to zero and pauses it.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = t.now()
	t.elapsed = 0
	t.paused = true
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Elapsed returns the current elapsed time.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return t.elapsed
	}
	return t.now().Sub(t.start)
}
