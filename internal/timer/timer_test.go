package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeTimer() (*Timer, *fakeClock) {
	c := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewWithClock(c), c
}

func TestTimer_StoppedByDefault(t *testing.T) {
	tm, c := newFakeTimer()
	c.Advance(5 * time.Second)
	assert.False(t, tm.Running())
	assert.Zero(t, tm.Elapsed())
}

func TestTimer_StartAccumulates(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, tm.Elapsed(), 1e-9)
	assert.True(t, tm.Running())
}

func TestTimer_StartIdempotent(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(2 * time.Second)
	tm.Start()
	c.Advance(time.Second)
	assert.InDelta(t, 3.0, tm.Elapsed(), 1e-9)
}

func TestTimer_StopFreezes(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(2 * time.Second)
	tm.Stop()
	tm.Stop()
	c.Advance(10 * time.Second)
	assert.InDelta(t, 2.0, tm.Elapsed(), 1e-9)
	assert.False(t, tm.Running())
}

func TestTimer_ResumeAfterStop(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(2 * time.Second)
	tm.Stop()
	c.Advance(time.Minute)
	tm.Start()
	c.Advance(3 * time.Second)
	assert.InDelta(t, 5.0, tm.Elapsed(), 1e-9)
}

func TestTimer_ResetWhileRunning(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(30 * time.Second)
	tm.Reset()
	assert.Zero(t, tm.Elapsed())
	c.Advance(4 * time.Second)
	assert.InDelta(t, 4.0, tm.Elapsed(), 1e-9)
	assert.True(t, tm.Running())
}

func TestTimer_ResetWhileStopped(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(30 * time.Second)
	tm.Stop()
	tm.Reset()
	c.Advance(4 * time.Second)
	assert.Zero(t, tm.Elapsed())
	assert.False(t, tm.Running())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{9.99, "00:09"},
		{61, "01:01"},
		{600, "10:00"},
		{6000.5, "100:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.seconds), "Format(%v)", tt.seconds)
	}
}

func TestDisplay(t *testing.T) {
	tm, c := newFakeTimer()
	tm.Start()
	c.Advance(75 * time.Second)
	assert.Equal(t, "01:15", tm.Display())
}
