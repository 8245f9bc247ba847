package clock

import (
	"sync/atomic"
	"time"
)

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// NewTicker returns a ticker firing every d. Callers must Stop it.
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the application uses
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker
func (c *RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// OffsetClock shifts another clock by an adjustable offset.
// Used to line the local clock up with the server's.
type OffsetClock struct {
	base   Clock
	offset atomic.Int64
}

// NewOffset creates an OffsetClock with a zero offset
func NewOffset(base Clock) *OffsetClock {
	return &OffsetClock{base: base}
}

// SetOffset sets the amount added to the base clock
func (c *OffsetClock) SetOffset(d time.Duration) {
	c.offset.Store(int64(d))
}

// Offset returns the current offset
func (c *OffsetClock) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Now returns the base time plus the offset
func (c *OffsetClock) Now() time.Time {
	return c.base.Now().Add(c.Offset())
}

// NewTicker delegates to the base clock
func (c *OffsetClock) NewTicker(d time.Duration) Ticker {
	return c.base.NewTicker(d)
}
