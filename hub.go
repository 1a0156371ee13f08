package couv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/webriots/couv/reactor"
)

const driverName = "reactor"

// Hub bridges a Scheduler and a reactor.Loop. The loop runs inside a
// driver tasklet, which yields back to the scheduler on a short timer so
// that other ready tasklets interleave with reactor-driven I/O. Tasklets
// wait on reactor handles through Sleep, Idle, After and WaitFD, which
// park the caller on a private channel until the handle fires.
//
// Only Wake, Running, Wakeups, Watching and WatchedFDs may be called from
// goroutines other than the one running the scheduler. Waits cannot be
// canceled once registered.
type Hub struct {
	sched   *Scheduler
	loop    *reactor.Loop
	wakeup  *reactor.Async
	log     *logiface.Logger[logiface.Event]
	yield   time.Duration
	running atomic.Bool
	driver  *Tasklet
	spawns  int
	wakeups atomic.Uint64

	mu      sync.Mutex
	watched map[int]*reactor.Poll
}

func newHub(s *Scheduler) (*Hub, error) {
	loop, err := s.opts.newLoop()
	if err == nil && loop == nil {
		err = errors.New("loop factory returned nil")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoopInitializationFailed, err)
	}

	h := &Hub{
		sched:   s,
		loop:    loop,
		log:     s.log,
		yield:   s.opts.yieldInterval,
		watched: make(map[int]*reactor.Poll),
	}

	h.wakeup, err = reactor.NewAsync(loop, h.onWake)
	if err != nil {
		_ = loop.Close()
		return nil, fmt.Errorf("%w: wake handle: %w", ErrLoopInitializationFailed, err)
	}
	h.wakeup.Unref()

	h.spawnDriver()
	h.log.Debug().Log("hub created")
	return h, nil
}

// Loop returns the hub's event loop, for registering handles beyond the
// ones the hub offers. It must only be used from tasklets of the hub's
// scheduler.
func (h *Hub) Loop() *reactor.Loop {
	return h.loop
}

// Running reports whether the driver is inside the event loop.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// Driver returns the most recently spawned driver tasklet.
func (h *Hub) Driver() *Tasklet {
	return h.driver
}

// Spawns returns how many driver tasklets have been spawned.
func (h *Hub) Spawns() int {
	return h.spawns
}

// Wakeups returns how many wake callbacks the loop has run.
func (h *Hub) Wakeups() uint64 {
	return h.wakeups.Load()
}

// Wake interrupts a blocked loop iteration so it recomputes its timers
// and watchers. It is safe to call from any goroutine, never blocks, and
// coalesces calls made before the loop notices.
func (h *Hub) Wake() {
	if err := h.wakeup.Send(); err != nil {
		h.log.Err().Err(err).Log("wake failed")
	}
}

// SwitchIntoReactor hands control from the calling tasklet straight to the
// driver, spawning a new driver if none is alive. The caller is taken off
// the run queue and runs again only once something readies it, typically
// a channel send from a fired handle.
func (h *Hub) SwitchIntoReactor() {
	cur := h.sched.Current()
	if cur != nil && cur == h.driver {
		return
	}
	h.kick()
	if cur != nil {
		cur.Remove()
	}
	h.driver.Switch()
}

// kick spawns a driver unless one is alive.
func (h *Hub) kick() {
	if h.Running() || (h.driver != nil && h.driver.Alive()) {
		return
	}
	h.spawnDriver()
}

func (h *Hub) spawnDriver() {
	h.spawns++
	h.driver = h.sched.Spawn(driverName, h.run)
	h.log.Debug().Int("spawns", h.spawns).Log("reactor driver spawned")
}

// run is the driver tasklet body.
func (h *Hub) run(ctx context.Context) {
	yield := reactor.NewTimer(h.loop)
	if err := yield.Start(h.onYield, h.yield, h.yield); err != nil {
		h.log.Err().Err(err).Log("yield timer failed")
	}
	yield.Unref()

	h.running.Store(true)
	defer func() {
		yield.Stop()
		h.running.Store(false)
	}()

	MustTaskletFromContext(ctx).Log("LOOP")
	if err := h.loop.Run(reactor.RunDefault); err != nil {
		h.log.Err().Err(err).Log("reactor loop failed")
		return
	}
	h.log.Debug().Log("reactor loop finished")
}

func (h *Hub) onYield(*reactor.Timer) {
	if h.sched.Current() == h.driver {
		h.sched.Yield()
	}
}

func (h *Hub) onWake(*reactor.Async) {
	h.wakeups.Add(1)
	h.loop.UpdateTime()
}

// Watching reports whether a waiter is registered on fd.
func (h *Hub) Watching(fd int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.watched[fd]
	return ok
}

// WatchedFDs returns the number of descriptors with a registered waiter.
func (h *Hub) WatchedFDs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watched)
}

func (h *Hub) close() error {
	h.wakeup.Close()
	return h.loop.Close()
}
