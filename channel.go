package couv

import "github.com/gammazero/deque"

// Channel is an unbuffered rendezvous channel between tasklets of one
// scheduler. A value travels with an optional error, so that a receiver
// can be resumed with a failure instead of a value.
type Channel[T any] struct {
	noCopy noCopy
	sched  *Scheduler
	recvq  deque.Deque[*chanWaiter[T]]
	sendq  deque.Deque[*chanWaiter[T]]
}

type chanWaiter[T any] struct {
	t   *Tasklet
	v   T
	err error
}

// NewChannel creates a channel for tasklets of s.
func NewChannel[T any](s *Scheduler) *Channel[T] {
	return &Channel[T]{sched: s}
}

// Send delivers v. With a receiver parked on the channel, the receiver is
// readied and Send returns at once. Otherwise the calling tasklet parks
// until a receiver takes the value.
func (c *Channel[T]) Send(v T) {
	c.send(v, nil)
}

// SendError is Send that makes the receiver's Receive return err.
func (c *Channel[T]) SendError(err error) {
	var zero T
	c.send(zero, err)
}

func (c *Channel[T]) send(v T, err error) {
	if c.recvq.Len() > 0 {
		w := c.recvq.PopFront()
		w.v, w.err = v, err
		c.sched.ready(w.t)
		return
	}

	t := c.sched.Current()
	if t == nil {
		panic("couv: blocking channel send outside a tasklet")
	}
	c.sendq.PushBack(&chanWaiter[T]{t: t, v: v, err: err})
	t.park()
}

// Receive returns the next value, parking the calling tasklet until a
// sender provides one.
func (c *Channel[T]) Receive() (T, error) {
	if c.sendq.Len() > 0 {
		w := c.sendq.PopFront()
		c.sched.ready(w.t)
		return w.v, w.err
	}

	t := c.sched.Current()
	if t == nil {
		panic("couv: blocking channel receive outside a tasklet")
	}
	w := &chanWaiter[T]{t: t}
	c.recvq.PushBack(w)
	t.park()
	return w.v, w.err
}

// Balance returns the number of parked senders, or minus the number of
// parked receivers.
func (c *Channel[T]) Balance() int {
	return c.sendq.Len() - c.recvq.Len()
}
