package reactor

import "time"

// Events is a bitmask of file descriptor readiness conditions.
type Events uint32

const (
	// Readable reports that a read will not block.
	Readable Events = 1 << iota
	// Writable reports that a write will not block.
	Writable
	// Error reports an error condition on the descriptor.
	Error
	// Hangup reports that the peer closed its end.
	Hangup
)

// poller is the platform backend of a Loop.
type poller interface {
	add(fd int, events Events) error
	mod(fd int, events Events) error
	del(fd int) error
	// wait blocks for at most timeout (forever when negative) and reports
	// every ready descriptor to fn. A pending wakeup is reported with
	// woken set, after the wakeup counter has been drained.
	wait(timeout time.Duration, fn func(fd int, events Events)) (woken bool, err error)
	// wake makes a concurrent or future wait return promptly. It is the only
	// method safe to call from another goroutine.
	// Once the poller is closed it fails with ErrClosed.
	wake() error
	close() error
}

// timeoutMillis converts a poll timeout to whole milliseconds, rounding up
// so that the poller never returns before a timer is due.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > 1<<31-1 {
		ms = 1<<31 - 1
	}
	return int(ms)
}
