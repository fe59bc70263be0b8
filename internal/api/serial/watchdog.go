package serial

import (
	"sync"
	"time"
)

// DefaultWatchdogTimeout is the time a declared frame has to arrive completely.
const DefaultWatchdogTimeout = 2 * time.Second

// Watchdog is a single cancelable deadline.
//
// The callback runs on the timer goroutine. A callback belonging to an earlier
// arming never runs once Disarm has returned, unless it had already started.
type Watchdog struct {
	// timeout is the delay between Arm and the callback.
	timeout time.Duration
	// mu protects the fields below.
	mu sync.Mutex
	// timer is the pending timer, if any.
	timer *time.Timer
	// generation identifies the current arming.
	generation uint64
	// pending is true between Arm and either Disarm or expiry.
	pending bool
}

// NewWatchdog creates a watchdog; a non-positive timeout selects DefaultWatchdogTimeout.
func NewWatchdog(timeout time.Duration) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}

	return &Watchdog{
		timeout: timeout,
	}
}

// Timeout returns the configured deadline.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Arm schedules onExpire after the timeout.
// It is a no-op returning false while a deadline is already pending.
func (w *Watchdog) Arm(onExpire func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return false
	}

	w.generation++
	w.pending = true

	generation := w.generation
	w.timer = time.AfterFunc(w.timeout, func() {
		if !w.fire(generation) {
			return
		}

		onExpire()
	})

	return true
}

// Disarm cancels the pending deadline and reports whether one was pending.
func (w *Watchdog) Disarm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending {
		return false
	}

	w.pending = false
	w.generation++

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	return true
}

// Pending reports whether a deadline is armed.
func (w *Watchdog) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pending
}

// fire claims the expiry for generation.
func (w *Watchdog) fire(generation uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending || w.generation != generation {
		return false
	}

	w.pending = false
	w.timer = nil

	return true
}
