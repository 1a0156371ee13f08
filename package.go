// Package couv runs cooperatively scheduled tasklets on top of a
// single-threaded event loop. Tasklets block on timers, idle periods and
// file descriptor readiness without ever polling: the waiting tasklet is
// parked on a private channel while the loop, itself running as a
// tasklet, drives progress underneath.
//
// Key components:
//
//   - Scheduler: runs tasklets on the goroutine calling Run. Tasklets
//     switch only when they block on a Channel, yield, or hand off
//     explicitly with Switch.
//
//   - Tasklet: a coroutine with its own stack. Each tasklet body receives
//     a context carrying the tasklet, see TaskletFromContext.
//
//   - Channel: an unbuffered rendezvous channel that can also deliver an
//     error to the receiver.
//
//   - Hub: the per-scheduler bridge to a reactor.Loop, created lazily by
//     Scheduler.Hub. Its driver tasklet runs the loop and periodically
//     yields so that other tasklets interleave with I/O. Hub.Wake is the
//     only entry point for other goroutines.
//
//   - Sleep, IdleWait, WaitFD and Hub.After: one-shot waits on reactor
//     handles. Each wait allocates its own channel; the handle is stopped
//     before the waiter is resumed, and a panicking callback resumes its
//     waiter with a *CallbackError instead of stalling it.
//
//   - Synchronization primitives: Mutex, WaitGroup and Group for
//     coordinating tasklets of one scheduler.
//
// Waits cannot be canceled once registered. A caller that needs a timeout
// must race two waits above this layer.
package couv
