package timer

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Clock abstracts the monotonic time source so tests can drive it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Timer accumulates wall-clock review time between Start and Stop.
// It samples a monotonic clock on demand instead of ticking.
type Timer struct {
	mu      sync.Mutex
	clock   Clock
	total   time.Duration
	since   time.Time
	running bool
}

// New returns a stopped timer backed by the system clock.
func New() *Timer {
	return NewWithClock(systemClock{})
}

// NewWithClock returns a stopped timer backed by clock.
func NewWithClock(clock Clock) *Timer {
	return &Timer{clock: clock}
}

// Start begins accumulating. Calling Start on a running timer does nothing.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.since = t.clock.Now()
	t.running = true
}

// Stop halts accumulation. Calling Stop on a stopped timer does nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.total += t.delta()
	t.running = false
}

// Reset zeroes the accumulated time. A running timer keeps running from zero.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = 0
	if t.running {
		t.since = t.clock.Now()
	}
}

// Running reports whether the timer is accumulating.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the accumulated time in seconds, including the live delta.
func (t *Timer) Elapsed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.total
	if t.running {
		d += t.delta()
	}
	return d.Seconds()
}

// Display returns the elapsed time formatted as MM:SS.
func (t *Timer) Display() string {
	return Format(t.Elapsed())
}

// delta must be called with mu held.
func (t *Timer) delta() time.Duration {
	d := t.clock.Now().Sub(t.since)
	if d < 0 {
		return 0
	}
	return d
}

// Format renders seconds as MM:SS. Minutes are not bounded at 59.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}
