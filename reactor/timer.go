package reactor

import (
	"container/heap"
	"time"
)

// Timer fires its callback once the timeout elapses, then every repeat
// interval if repeat is positive.
type Timer struct {
	handle
	cb     func(*Timer)
	due    time.Time
	repeat time.Duration
	seq    uint64
	index  int
}

// NewTimer returns an inactive timer bound to l.
func NewTimer(l *Loop) *Timer {
	return &Timer{handle: handle{loop: l}, index: -1}
}

// Start arms the timer relative to the loop time. A started timer is
// restarted. Timers due at the same instant fire in start order.
func (t *Timer) Start(cb func(*Timer), timeout, repeat time.Duration) error {
	if t.loop.closed {
		return ErrClosed
	}
	if cb == nil {
		return ErrNilCallback
	}
	if timeout < 0 || repeat < 0 {
		return ErrNegativeTime
	}
	t.Stop()
	t.cb = cb
	t.repeat = repeat
	t.arm(t.loop.now.Add(timeout))
	return nil
}

// Stop disarms the timer. Stopping an inactive timer is a no-op.
func (t *Timer) Stop() {
	if t.index >= 0 {
		heap.Remove(&t.loop.timers, t.index)
	}
	t.deactivate()
}

// Repeat returns the repeat interval.
func (t *Timer) Repeat() time.Duration {
	return t.repeat
}

func (t *Timer) arm(due time.Time) {
	t.loop.seq++
	t.seq = t.loop.seq
	t.due = due
	heap.Push(&t.loop.timers, t)
	t.activate()
}
