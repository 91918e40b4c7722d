package flight

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Clock is the sequencer's time source.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Waiter regulates the loop rate: it blocks until deadline or until ctx is
// done.
type Waiter interface {
	WaitUntil(ctx context.Context, deadline time.Time)
}

// SpinWaiter busy-waits. It holds timing to a few microseconds at the cost of
// a CPU core.
type SpinWaiter struct {
	Clock Clock
}

func (w SpinWaiter) WaitUntil(ctx context.Context, deadline time.Time) {
	for n := 0; w.Clock.Now().Before(deadline); n++ {
		if n&0xff == 0 {
			if ctx.Err() != nil {
				return
			}
			runtime.Gosched()
		}
	}
}

// SleepWaiter sleeps until the deadline. Jitter depends on the OS timer.
type SleepWaiter struct {
	Clock Clock
}

func (w SleepWaiter) WaitUntil(ctx context.Context, deadline time.Time) {
	d := deadline.Sub(w.Clock.Now())
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// TickerWaiter waits for the next tick of an external source, such as a
// time.Ticker or an IMU data-ready interrupt. The deadline is ignored.
type TickerWaiter struct {
	C <-chan time.Time
}

func (w TickerWaiter) WaitUntil(ctx context.Context, _ time.Time) {
	select {
	case <-w.C:
	case <-ctx.Done():
	}
}

// FakeClock is a manually advanced Clock. As a Waiter it jumps straight to
// the deadline, so a simulated loop runs as fast as the host allows.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *FakeClock) WaitUntil(ctx context.Context, deadline time.Time) {
	c.mu.Lock()
	if deadline.After(c.now) {
		c.now = deadline
	}
	c.mu.Unlock()
}
