package reactor

// Idle runs its callback once per loop iteration while active. An active
// idle handle keeps the poll phase from blocking.
type Idle struct {
	handle
	cb func(*Idle)
}

// NewIdle returns an inactive idle handle bound to l.
func NewIdle(l *Loop) *Idle {
	return &Idle{handle: handle{loop: l}}
}

// Start activates the handle.
func (i *Idle) Start(cb func(*Idle)) error {
	if i.loop.closed {
		return ErrClosed
	}
	if cb == nil {
		return ErrNilCallback
	}
	i.cb = cb
	if i.active {
		return nil
	}
	i.loop.idles = append(i.loop.idles, i)
	i.activate()
	return nil
}

// Stop deactivates the handle.
func (i *Idle) Stop() {
	if !i.active {
		return
	}
	for n, v := range i.loop.idles {
		if v == i {
			i.loop.idles = append(i.loop.idles[:n], i.loop.idles[n+1:]...)
			break
		}
	}
	i.deactivate()
}
