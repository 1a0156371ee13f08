package reactor

import "sync/atomic"

// Async wakes the loop from any goroutine and runs its callback on the
// loop. It is active from creation until Close.
type Async struct {
	handle
	cb      func(*Async)
	pending atomic.Bool
}

// NewAsync creates an active async handle bound to l.
func NewAsync(l *Loop, cb func(*Async)) (*Async, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if cb == nil {
		return nil, ErrNilCallback
	}
	a := &Async{handle: handle{loop: l}, cb: cb}
	l.asyncs = append(l.asyncs, a)
	a.activate()
	return a, nil
}

// Send schedules the callback. It is safe to call from any goroutine and
// never blocks. Sends made before the callback runs are coalesced.
func (a *Async) Send() error {
	if !a.pending.CompareAndSwap(false, true) {
		return nil
	}
	if err := a.loop.p.wake(); err != nil {
		a.pending.Store(false)
		return err
	}
	return nil
}

// Close deactivates the handle. Pending sends are dropped.
func (a *Async) Close() {
	if !a.active {
		return
	}
	for n, v := range a.loop.asyncs {
		if v == a {
			a.loop.asyncs = append(a.loop.asyncs[:n], a.loop.asyncs[n+1:]...)
			break
		}
	}
	a.deactivate()
}

func (a *Async) fire() {
	if !a.active || !a.pending.CompareAndSwap(true, false) {
		return
	}
	a.cb(a)
}
