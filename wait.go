package couv

import (
	"context"
	"fmt"
	"time"

	"github.com/webriots/couv/reactor"
)

// firing is what a fired handle hands to its waiter.
type firing struct {
	events reactor.Events
	err    error
}

// waiter returns the calling tasklet, or an error if the caller may not
// park.
func (h *Hub) waiter() (*Tasklet, error) {
	t := h.sched.Current()
	if t == nil {
		return nil, ErrNotInTasklet
	}
	if t == h.driver {
		return nil, ErrInReactor
	}
	return t, nil
}

// fire completes a wait in two steps: stop the handle, then deliver. The
// handle is stopped first so it cannot fire again once the waiter has
// resumed. A panic in deliver reaches the waiter as a *CallbackError and
// leaves the driver running.
func (h *Hub) fire(c *Channel[firing], stop func(), deliver func() firing) {
	stop()

	var f firing
	func() {
		defer func() {
			if p := recover(); p != nil {
				err := newCallbackError(p)
				h.log.Warning().Err(err).Log("handle callback panicked")
				f = firing{err: err}
			}
		}()
		f = deliver()
	}()

	c.Send(f)
}

// await parks the caller on c after making sure a driver will run.
func (h *Hub) await(c *Channel[firing]) firing {
	h.kick()
	f, err := c.Receive()
	if err != nil && f.err == nil {
		f.err = err
	}
	return f
}

// After runs fn inside the reactor once d has elapsed, parking the caller
// until then, and returns fn's error. A panic in fn is returned as a
// *CallbackError. A nil fn makes After a plain sleep.
func (h *Hub) After(d time.Duration, fn func() error, opts ...WaitOption) error {
	if _, err := h.waiter(); err != nil {
		return err
	}
	if d < 0 {
		d = 0
	}
	cfg := resolveWaitOptions(opts)

	c := NewChannel[firing](h.sched)
	timer := reactor.NewTimer(h.loop)
	h.loop.UpdateTime()
	err := timer.Start(func(timer *reactor.Timer) {
		h.fire(c, timer.Stop, func() firing {
			if fn == nil {
				return firing{}
			}
			return firing{err: fn()}
		})
	}, d, d)
	if err != nil {
		return fmt.Errorf("%w: timer: %w", ErrHandleRegistrationFailed, err)
	}
	if !cfg.keepAlive {
		timer.Unref()
	}

	return h.await(c).err
}

// Sleep parks the calling tasklet until at least d of loop time has
// passed.
func (h *Hub) Sleep(d time.Duration, opts ...WaitOption) error {
	return h.After(d, nil, opts...)
}

// Idle parks the calling tasklet until the loop has an iteration with
// nothing else to do, and reports true once it resumes.
func (h *Hub) Idle(opts ...WaitOption) (bool, error) {
	if _, err := h.waiter(); err != nil {
		return false, err
	}
	cfg := resolveWaitOptions(opts)

	c := NewChannel[firing](h.sched)
	idle := reactor.NewIdle(h.loop)
	err := idle.Start(func(idle *reactor.Idle) {
		h.fire(c, idle.Stop, func() firing { return firing{} })
	})
	if err != nil {
		return false, fmt.Errorf("%w: idle: %w", ErrHandleRegistrationFailed, err)
	}
	if !cfg.keepAlive {
		idle.Unref()
	}

	if f := h.await(c); f.err != nil {
		return false, f.err
	}
	return true, nil
}

// WaitFD parks the calling tasklet until the descriptor named by src is
// ready for mode, and returns the readiness reported by the loop. Only one
// tasklet may wait on a descriptor at a time.
func (h *Hub) WaitFD(src any, mode Interest, opts ...WaitOption) (reactor.Events, error) {
	fd, err := ResolveDescriptor(src)
	if err != nil {
		return 0, err
	}
	if _, err := h.waiter(); err != nil {
		return 0, err
	}
	cfg := resolveWaitOptions(opts)

	p, err := h.watch(fd)
	if err != nil {
		return 0, err
	}

	c := NewChannel[firing](h.sched)
	stop := func() {
		if err := p.Stop(); err != nil {
			h.log.Warning().Err(err).Int("fd", fd).Log("poll stop failed")
		}
		h.unwatch(fd)
	}
	err = p.Start(ResolveInterest(mode), func(_ *reactor.Poll, events reactor.Events) {
		h.fire(c, stop, func() firing { return firing{events: events} })
	})
	if err != nil {
		h.unwatch(fd)
		return 0, fmt.Errorf("%w: fd %d: %w", ErrHandleRegistrationFailed, fd, err)
	}
	if !cfg.keepAlive {
		p.Unref()
	}

	f := h.await(c)
	return f.events, f.err
}

func (h *Hub) watch(fd int) (*reactor.Poll, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.watched[fd]; ok {
		return nil, fmt.Errorf("%w: fd %d: %w", ErrHandleRegistrationFailed, fd, reactor.ErrFDBusy)
	}
	p, err := reactor.NewPoll(h.loop, fd)
	if err != nil {
		return nil, fmt.Errorf("%w: fd %d: %w", ErrHandleRegistrationFailed, fd, err)
	}
	h.watched[fd] = p
	return p, nil
}

func (h *Hub) unwatch(fd int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watched, fd)
}

// Sleep parks the tasklet carried by ctx for d, see Hub.Sleep.
func Sleep(ctx context.Context, d time.Duration, opts ...WaitOption) error {
	h, err := HubFromContext(ctx)
	if err != nil {
		return err
	}
	return h.Sleep(d, opts...)
}

// IdleWait parks the tasklet carried by ctx until the loop is idle, see
// Hub.Idle.
func IdleWait(ctx context.Context, opts ...WaitOption) (bool, error) {
	h, err := HubFromContext(ctx)
	if err != nil {
		return false, err
	}
	return h.Idle(opts...)
}

// WaitFD parks the tasklet carried by ctx until src is ready, see
// Hub.WaitFD.
func WaitFD(ctx context.Context, src any, mode Interest, opts ...WaitOption) (reactor.Events, error) {
	h, err := HubFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return h.WaitFD(src, mode, opts...)
}
