package reactor

import (
	"container/heap"
	"time"

	"github.com/eapache/queue"
)

// RunMode selects how long Loop.Run keeps iterating.
type RunMode int

const (
	// RunDefault iterates until no active referenced handle remains or
	// Stop is called.
	RunDefault RunMode = iota
	// RunOnce performs a single iteration, blocking in the poll phase if
	// there is nothing due.
	RunOnce
	// RunNoWait performs a single iteration without blocking.
	RunNoWait
)

// Loop is a single-threaded event loop. See the package documentation.
type Loop struct {
	p       poller
	now     time.Time
	timers  timerHeap
	seq     uint64
	idles   []*Idle
	asyncs  []*Async
	polls   map[int]*Poll
	pending *queue.Queue // func() callbacks fired by the current poll
	refs    int          // active, referenced handles
	stop    bool
	running bool
	closed  bool
}

// New creates a Loop backed by the platform poller.
func New() (*Loop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	return &Loop{
		p:       p,
		now:     time.Now(),
		polls:   make(map[int]*Poll),
		pending: queue.New(),
	}, nil
}

// Now returns the loop time, cached at the start of each iteration.
func (l *Loop) Now() time.Time {
	return l.now
}

// UpdateTime refreshes the cached loop time.
func (l *Loop) UpdateTime() {
	l.now = time.Now()
}

// Alive reports whether an active, referenced handle exists.
func (l *Loop) Alive() bool {
	return l.refs > 0
}

// Stop makes Run return after the current iteration.
func (l *Loop) Stop() {
	l.stop = true
}

// Run runs the loop in the given mode. Callbacks are invoked from inside
// Run only.
func (l *Loop) Run(mode RunMode) error {
	if l.closed {
		return ErrClosed
	}
	if l.running {
		return ErrRunning
	}
	l.running = true
	defer func() {
		l.running = false
		l.stop = false
	}()

	l.UpdateTime()
	for l.Alive() && !l.stop {
		l.UpdateTime()
		l.runTimers()
		l.runIdles()

		var timeout time.Duration
		if mode == RunDefault || mode == RunOnce {
			timeout = l.pollTimeout()
		}
		if err := l.poll(timeout); err != nil {
			return err
		}

		if mode == RunOnce {
			l.UpdateTime()
			l.runTimers()
		}
		if mode != RunDefault {
			break
		}
	}
	return nil
}

// Close releases the poller. Handles must not be used afterwards.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	if l.running {
		return ErrRunning
	}
	l.closed = true
	return l.p.close()
}

func (l *Loop) pollTimeout() time.Duration {
	if l.stop || !l.Alive() {
		return 0
	}
	for _, i := range l.idles {
		if i.active {
			return 0
		}
	}
	if len(l.timers) == 0 {
		return -1
	}
	if d := l.timers[0].due.Sub(l.now); d > 0 {
		return d
	}
	return 0
}

func (l *Loop) poll(timeout time.Duration) error {
	woken, err := l.p.wait(timeout, func(fd int, events Events) {
		if p, ok := l.polls[fd]; ok {
			l.pending.Add(func() { p.fire(events) })
		}
	})
	if err != nil {
		return err
	}
	if woken {
		for _, a := range l.asyncs {
			l.pending.Add(func() { a.fire() })
		}
	}
	for l.pending.Length() > 0 {
		l.pending.Remove().(func())()
	}
	return nil
}

func (l *Loop) runTimers() {
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.due.After(l.now) {
			return
		}
		t.Stop()
		if t.repeat > 0 {
			t.arm(l.now.Add(t.repeat))
		}
		t.cb(t)
	}
}

func (l *Loop) runIdles() {
	if len(l.idles) == 0 {
		return
	}
	idles := append([]*Idle(nil), l.idles...)
	for _, i := range idles {
		if i.active {
			i.cb(i)
		}
	}
}

// handle holds the state shared by every handle type.
type handle struct {
	loop   *Loop
	active bool
	unref  bool
}

func (h *handle) activate() {
	if h.active {
		return
	}
	h.active = true
	if !h.unref {
		h.loop.refs++
	}
}

func (h *handle) deactivate() {
	if !h.active {
		return
	}
	h.active = false
	if !h.unref {
		h.loop.refs--
	}
}

// IsActive reports whether the handle is started.
func (h *handle) IsActive() bool {
	return h.active
}

// HasRef reports whether the handle keeps the loop alive while active.
func (h *handle) HasRef() bool {
	return !h.unref
}

// Ref makes the handle keep the loop alive while active. This is the default.
func (h *handle) Ref() {
	if !h.unref {
		return
	}
	h.unref = false
	if h.active {
		h.loop.refs++
	}
}

// Unref stops the handle from keeping the loop alive on its own.
func (h *handle) Unref() {
	if h.unref {
		return
	}
	h.unref = true
	if h.active {
		h.loop.refs--
	}
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

var _ heap.Interface = (*timerHeap)(nil)
