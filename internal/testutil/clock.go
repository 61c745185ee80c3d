package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a new Clock starts at.
var Epoch = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced wall clock for tests.
//
// Unlike time.Now, Clock only moves when Advance is called, so order
// timestamps and DateSeconds values are reproducible across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock reading Epoch.
func NewClock() *Clock {
	return NewClockAt(Epoch)
}

// NewClockAt creates a clock reading t.
func NewClockAt(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
