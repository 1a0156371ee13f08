package couv

import (
	"context"
	"fmt"
	"runtime/trace"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/joeycumines/logiface"
)

const (
	schedulerTraceTaskType = "couv-scheduler"

	// DefaultYieldInterval is how often the reactor driver offers the
	// thread back to other ready tasklets while the loop runs.
	DefaultYieldInterval = 100 * time.Microsecond
)

// Scheduler runs tasklets cooperatively on the goroutine that calls Run.
// It owns at most one Hub, created on first use. A Scheduler is not safe
// for concurrent use; Hub.Wake is the only way in from other goroutines.
type Scheduler struct {
	noCopy noCopy

	ctx     context.Context
	runq    deque.Deque[*Tasklet]
	current *Tasklet
	parked  int
	nextID  uint64
	running bool
	opts    *schedulerOptions
	log     *logiface.Logger[logiface.Event]

	hubOnce sync.Once
	hub     *Hub
	hubErr  error
}

// New creates a Scheduler.
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		ctx:  context.Background(),
		opts: cfg,
		log:  cfg.logger,
	}, nil
}

// Spawn creates a tasklet running fn and appends it to the run queue. The
// context passed to fn carries the tasklet, see TaskletFromContext.
func (s *Scheduler) Spawn(name string, fn func(context.Context)) *Tasklet {
	t := newTasklet(s, name, fn)
	s.ready(t)
	return t
}

// Go is Spawn with a generated name.
func (s *Scheduler) Go(fn func(context.Context)) *Tasklet {
	return s.Spawn("", fn)
}

// Current returns the running tasklet, or nil outside Run.
func (s *Scheduler) Current() *Tasklet {
	return s.current
}

// Yield moves the current tasklet to the tail of the run queue and lets
// the others run. It is a no-op outside a tasklet.
func (s *Scheduler) Yield() {
	t := s.current
	if t == nil {
		return
	}
	if t.state != stateBlocked {
		s.ready(t)
	}
	t.suspend()
}

// Parked returns the number of tasklets that are blocked off the run queue.
func (s *Scheduler) Parked() int {
	return s.parked
}

// Runnable returns the number of tasklets waiting on the run queue.
func (s *Scheduler) Runnable() int {
	return s.runq.Len()
}

// Run resumes tasklets in run queue order until the queue is empty. It
// returns ErrDeadlock if tasklets are still parked at that point. A panic
// in a tasklet propagates out of Run.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.running {
		panic("couv: Scheduler.Run called recursively")
	}
	s.running = true
	defer func() { s.running = false }()

	ctx, tracer := trace.NewTask(ctx, schedulerTraceTaskType)
	defer tracer.End()
	s.ctx = ctx

	trace.Log(ctx, taskletTraceCategory, "RUN")

	for s.runq.Len() > 0 {
		t := s.runq.PopFront()
		t.queued = false
		s.current = t
		func() {
			defer func() { s.current = nil }()
			t.run()
		}()
	}

	trace.Log(ctx, taskletTraceCategory, "RUN DONE")

	if s.parked > 0 {
		return fmt.Errorf("%w: %d tasklets parked", ErrDeadlock, s.parked)
	}
	return nil
}

// Close releases the event loop owned by the scheduler's hub, if any.
func (s *Scheduler) Close() error {
	if s.hub == nil {
		return nil
	}
	return s.hub.close()
}

// Hub returns the scheduler's hub, creating it on first call. Creation
// fails with ErrLoopInitializationFailed if the event loop cannot be set
// up, and that failure is final for this scheduler.
func (s *Scheduler) Hub() (*Hub, error) {
	s.hubOnce.Do(func() {
		hub, err := newHub(s)
		if err != nil {
			s.hubErr = err
			s.log.Err().Err(err).Log("hub creation failed")
			return
		}
		s.hub = hub
	})
	return s.hub, s.hubErr
}

// ready appends t to the run queue.
func (s *Scheduler) ready(t *Tasklet) {
	switch t.state {
	case stateDone:
		return
	case stateBlocked:
		s.parked--
	}
	t.state = stateReady
	t.waiting = false
	if !t.queued {
		t.queued = true
		s.runq.PushBack(t)
	}
}

// unqueue removes t from the run queue if it is there.
func (s *Scheduler) unqueue(t *Tasklet) {
	if !t.queued {
		return
	}
	if i := s.runq.Index(func(v *Tasklet) bool { return v == t }); i >= 0 {
		s.runq.Remove(i)
	}
	t.queued = false
}

// HubFromContext returns the hub of the scheduler running the tasklet
// carried by ctx.
func HubFromContext(ctx context.Context) (*Hub, error) {
	t, ok := TaskletFromContext(ctx)
	if !ok {
		return nil, ErrNotInTasklet
	}
	return t.sched.Hub()
}
