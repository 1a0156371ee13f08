package couv

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"

	"github.com/webriots/coro"
)

const (
	taskletTraceRegionType = "couv-tasklet"
	taskletTraceCategory   = "couv"
)

type taskletState uint8

const (
	stateReady taskletState = iota
	stateRunning
	stateBlocked
	stateDone
)

func (s taskletState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateBlocked:
		return "blocked"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("taskletState(%d)", s)
	}
}

// Tasklet is a cooperatively scheduled task with its own stack. A tasklet
// runs until it blocks on a channel, yields, removes itself, or switches
// to another tasklet.
type Tasklet struct {
	id      uint64
	name    string
	ctx     context.Context
	sched   *Scheduler
	parent  *Tasklet
	state   taskletState
	queued  bool
	waiting bool // parked on a channel or semaphore
	suspend func() struct{}
	resume  func(struct{}) (struct{}, bool)
	cancel  func()
}

func newTasklet(s *Scheduler, name string, fn func(context.Context)) *Tasklet {
	s.nextID++
	t := &Tasklet{
		id:     s.nextID,
		name:   name,
		sched:  s,
		parent: s.current,
	}
	if t.name == "" {
		t.name = fmt.Sprintf("tasklet-%d", t.id)
	}

	resume, cancel := coro.New(
		func(_ func(struct{}) struct{}, suspend func() struct{}) (z struct{}) {
			t.suspend = suspend
			t.ctx = withTaskletContext(s.ctx, t)

			region := trace.StartRegion(t.ctx, taskletTraceRegionType)
			defer region.End()

			fn(t.ctx)
			return
		},
	)

	t.resume = resume
	t.cancel = cancel
	return t
}

// ID returns the scheduler-unique tasklet id.
func (t *Tasklet) ID() uint64 {
	return t.id
}

// Name returns the tasklet name.
func (t *Tasklet) Name() string {
	return t.name
}

// Scheduler returns the scheduler that owns t.
func (t *Tasklet) Scheduler() *Scheduler {
	return t.sched
}

// Context returns the context passed to the tasklet body. It is nil until
// the tasklet first runs.
func (t *Tasklet) Context() context.Context {
	return t.ctx
}

// Alive reports whether the tasklet body has not returned yet.
func (t *Tasklet) Alive() bool {
	return t.state != stateDone
}

// Blocked reports whether the tasklet is parked off the run queue.
func (t *Tasklet) Blocked() bool {
	return t.state == stateBlocked
}

// Remove takes t off the run queue. When t is the current tasklet it keeps
// running until it next suspends, and is not requeued afterwards. A removed
// tasklet runs again only after Insert or Switch readies it.
func (t *Tasklet) Remove() {
	switch t.state {
	case stateReady:
		t.sched.unqueue(t)
	case stateRunning:
	default:
		return
	}
	t.state = stateBlocked
	t.sched.parked++
}

// Insert puts a removed tasklet back at the tail of the run queue. It
// panics if t is parked on a channel or semaphore, which only the matching
// send or release may resume.
func (t *Tasklet) Insert() {
	if t.waiting {
		panic("couv: Insert of a tasklet blocked on a channel")
	}
	if t.state == stateBlocked {
		t.sched.ready(t)
	}
}

// Switch hands control directly to t: t runs next, ahead of everything
// else on the run queue. The calling tasklet goes to the tail of the run
// queue unless it removed itself first, in which case it stays parked.
// Called from outside any tasklet, Switch only moves t to the front.
// Like Insert, it panics if t is parked on a channel or semaphore.
func (t *Tasklet) Switch() {
	s := t.sched
	cur := s.current
	if cur == t || t.state == stateDone {
		return
	}
	if t.waiting {
		panic("couv: Switch to a tasklet blocked on a channel")
	}

	switch t.state {
	case stateReady:
		s.unqueue(t)
	case stateBlocked:
		s.parked--
	}
	t.state = stateReady
	t.queued = true
	s.runq.PushFront(t)

	if cur == nil {
		return
	}
	t.Log("SWITCH")
	if cur.state == stateRunning {
		cur.state = stateReady
		cur.queued = true
		s.runq.PushBack(cur)
	}
	cur.suspend()
}

// park suspends the current tasklet off the run queue until a channel or
// semaphore readies it.
func (t *Tasklet) park() {
	t.Log("PARK")
	t.Remove()
	t.waiting = true
	t.suspend()
}

func (t *Tasklet) run() bool {
	t.state = stateRunning
	if _, ok := t.resume(struct{}{}); ok {
		return true
	}
	if t.state == stateBlocked {
		// removed itself, then returned
		t.sched.parked--
	}
	t.state = stateDone
	t.cancel()
	return false
}

func (t *Tasklet) String() string {
	return fmt.Sprintf("%s#%d(%s)", t.name, t.id, t.state)
}

// Log writes msg to the execution trace, prefixed with the tasklet path.
func (t *Tasklet) Log(msg string) {
	if trace.IsEnabled() && t.ctx != nil {
		var sb strings.Builder
		taskletPath(&sb, t)
		sb.WriteRune(' ')
		sb.WriteString(msg)
		trace.Log(t.ctx, taskletTraceCategory, sb.String())
	}
}

// Logf is the formatted variant of Log.
func (t *Tasklet) Logf(format string, args ...any) {
	if trace.IsEnabled() && t.ctx != nil {
		var sb strings.Builder
		taskletPath(&sb, t)
		sb.WriteRune(' ')
		fmt.Fprintf(&sb, format, args...)
		trace.Log(t.ctx, taskletTraceCategory, sb.String())
	}
}

func taskletPath(sb *strings.Builder, t *Tasklet) {
	if t == nil {
		return
	}
	taskletPath(sb, t.parent)
	fmt.Fprintf(sb, "%s|", t.name)
}
