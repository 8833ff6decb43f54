// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral reactor declarations. The concrete Reactor type is
// platform-specific: on Linux it watches file descriptors for readiness,
// on Windows it waits on signaled event objects. All registration and
// dispatch happens on the thread driving Poll; apart from Wake, none of
// the methods are safe for concurrent use.

package reactor

// Readiness is a bitset of OS-level readiness conditions.
type Readiness int

const (
	ReadReady Readiness = 1 << iota
	WriteReady
)

// FdCallback is invoked with the readiness observed for a registered file
// descriptor, already limited to the events selected with SetFdEvents.
type FdCallback func(ready Readiness)

// HandleCallback is invoked when a registered event object is signaled.
type HandleCallback func()
