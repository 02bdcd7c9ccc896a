package texsource

import "sync/atomic"

// Clock counts ticks. Sources memoize per tick and the host publishes at
// most one texture per tick, so one Clock is shared by everything driven
// from the same loop. Frame numbers start at 0 and only grow.
type Clock struct {
	frame atomic.Int64
}

// NewClock returns a clock at frame 0.
func NewClock() *Clock {
	return &Clock{}
}

// Frame returns the current tick number.
func (c *Clock) Frame() int64 {
	return c.frame.Load()
}

// Advance starts the next tick and returns its number.
func (c *Clock) Advance() int64 {
	return c.frame.Add(1)
}
