package reactor

// Poll watches a file descriptor for readiness.
type Poll struct {
	handle
	fd         int
	events     Events
	registered bool
	cb         func(*Poll, Events)
}

// NewPoll returns an inactive watcher for fd.
func NewPoll(l *Loop, fd int) (*Poll, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if fd < 0 {
		return nil, ErrBadDescriptor
	}
	return &Poll{handle: handle{loop: l}, fd: fd}, nil
}

// Fd returns the watched descriptor.
func (p *Poll) Fd() int {
	return p.fd
}

// Start watches for events, replacing any previous interest. Error and
// Hangup are always reported.
func (p *Poll) Start(events Events, cb func(*Poll, Events)) error {
	if p.loop.closed {
		return ErrClosed
	}
	if cb == nil {
		return ErrNilCallback
	}
	if other, ok := p.loop.polls[p.fd]; ok && other != p {
		return ErrFDBusy
	}

	events &= Readable | Writable
	if p.registered {
		if err := p.loop.p.mod(p.fd, events); err != nil {
			return err
		}
	} else {
		if err := p.loop.p.add(p.fd, events); err != nil {
			return err
		}
		p.registered = true
		p.loop.polls[p.fd] = p
	}

	p.events = events
	p.cb = cb
	p.activate()
	return nil
}

// Stop stops watching the descriptor.
func (p *Poll) Stop() error {
	p.deactivate()
	if !p.registered {
		return nil
	}
	p.registered = false
	delete(p.loop.polls, p.fd)
	if p.loop.closed {
		return nil
	}
	return p.loop.p.del(p.fd)
}

func (p *Poll) fire(events Events) {
	if !p.active {
		return
	}
	events &= p.events | Error | Hangup
	if events == 0 {
		return
	}
	p.cb(p, events)
}
