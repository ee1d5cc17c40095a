// Package turn implements the per-room turn, notification, and combat-round
// timing regimes.
package turn

import (
	"sync"
	"time"
)

// Countdown is a 1 Hz second-counter that reports each remaining value and
// fires an expiry callback at zero. It is pausable: Pause captures the exact
// remaining seconds and Resume restarts from that value with no drift.
// All methods are safe for concurrent use.
//
// Callbacks run on the countdown's own goroutine and must not call back
// into the Countdown.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	onTick    func(secondsLeft int)
	onExpire  func()
	stop      chan struct{}
	running   bool
	done      bool
}

// NewCountdown creates a countdown of the given duration. It does not start
// ticking until Start is called. The interval is the wall-clock length of
// one counted second; production callers pass time.Second.
//
// Precondition: seconds >= 1; interval > 0; onTick and onExpire must be non-nil.
func NewCountdown(seconds int, interval time.Duration, onTick func(int), onExpire func()) *Countdown {
	return &Countdown{
		remaining: seconds,
		interval:  interval,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// Start begins ticking and immediately reports the full remaining value.
// Starting a running or finished countdown is a no-op.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.running || c.done {
		c.mu.Unlock()
		return
	}
	c.running = true
	stop := make(chan struct{})
	c.stop = stop
	remaining := c.remaining
	c.mu.Unlock()

	c.onTick(remaining)
	go c.run(stop)
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.running || c.done {
				c.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			if remaining <= 0 {
				c.running = false
				c.done = true
			}
			c.mu.Unlock()

			if remaining <= 0 {
				c.onExpire()
				return
			}
			c.onTick(remaining)
		}
	}
}

// Pause halts ticking and returns the exact remaining seconds at the moment
// of the pause. Pausing a stopped or finished countdown returns the current
// remaining value unchanged.
func (c *Countdown) Pause() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.running = false
		close(c.stop)
	}
	return c.remaining
}

// Resume restarts ticking from the value captured at pause time.
func (c *Countdown) Resume() { c.Start() }

// Stop terminates the countdown permanently; no callback fires afterward.
// Safe to call multiple times.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
	if c.running {
		c.running = false
		close(c.stop)
	}
}

// Remaining returns the current remaining seconds.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is actively ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
