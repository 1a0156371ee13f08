package couv

import "github.com/gammazero/deque"

// sema is a counting semaphore for tasklets of one scheduler. Waiters are
// woken in FIFO order.
type sema struct {
	noCopy noCopy
	v      uint32
	w      deque.Deque[*Tasklet]
}

// acquire takes a unit, parking t until one is released if none is free.
func (s *sema) acquire(t *Tasklet) {
	if s.v > 0 {
		s.v--
		return
	}

	s.w.PushBack(t)
	t.park()
}

// release hands a unit to the longest waiting tasklet, or keeps it if
// nobody waits.
func (s *sema) release() {
	if s.w.Len() == 0 {
		s.v++
		return
	}

	t := s.w.PopFront()
	t.sched.ready(t)
}

// waiters returns the number of parked tasklets.
func (s *sema) waiters() int {
	return s.w.Len()
}
