// Package reactor implements a single-threaded event loop in the style of
// libuv. A Loop multiplexes timers, idle callbacks, cross-goroutine async
// signals and file descriptor readiness watchers, and invokes their
// callbacks from inside Run.
//
// Key components:
//
//   - Loop: owns the OS poller (epoll on Linux), a timer heap and the set
//     of active handles. Run keeps iterating while at least one active,
//     referenced handle exists.
//
//   - Timer: fires once after a timeout, then optionally every repeat
//     interval.
//
//   - Idle: fires on every loop iteration while active, and forces the
//     poll phase not to block.
//
//   - Async: the only handle that may be signalled from another goroutine.
//     Multiple sends before the loop notices are coalesced.
//
//   - Poll: watches a file descriptor for readability or writability.
//
// Every handle can be unreferenced with Unref, after which it no longer
// keeps Run alive on its own. A Loop and its handles are not safe for
// concurrent use, except for Async.Send.
package reactor
