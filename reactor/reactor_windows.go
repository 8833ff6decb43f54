//go:build windows
// +build windows

// File: reactor/reactor_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows event-object reactor. Registrants supply a manual-reset event
// handle (typically associated with a socket via WSAEventSelect) and are
// called back when it is signaled. One sweep services one signaled handle;
// the wait order is rotated across sweeps so a busy handle cannot shadow
// the others.

package reactor

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/control"
)

// The wake event occupies one WaitForMultipleObjects slot.
const maxHandles = 63

type handleEntry struct {
	h       windows.Handle
	cb      HandleCallback
	enabled bool
	removed bool
}

// Reactor is the Windows event-object-based event loop.
type Reactor struct {
	wake    windows.Handle
	entries map[windows.Handle]*handleEntry
	order   []windows.Handle
	rotate  int
	pending *pendingQueue
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	closed  bool
}

// New creates a reactor and its wake event.
func New() (*Reactor, error) {
	wake, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("create wake event: %w", err)
	}
	r := &Reactor{
		wake:    wake,
		entries: make(map[windows.Handle]*handleEntry),
		pending: newPendingQueue(),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	r.probes.RegisterProbe("reactor.handles", func() any { return len(r.entries) })
	r.probes.RegisterProbe("reactor.pending", func() any { return r.pending.len() })
	return r, nil
}

// Metrics exposes the reactor's counter registry.
func (r *Reactor) Metrics() *control.MetricsRegistry { return r.metrics }

// Probes exposes the reactor's debug probe registry.
func (r *Reactor) Probes() *control.DebugProbes { return r.probes }

// AddHandle registers an event object. The handle is not waited on until
// EnableHandle.
func (r *Reactor) AddHandle(h windows.Handle, cb HandleCallback) error {
	if _, dup := r.entries[h]; dup {
		return fmt.Errorf("handle %v already registered", h)
	}
	if len(r.entries) >= maxHandles {
		return fmt.Errorf("handle limit %d reached", maxHandles)
	}
	r.entries[h] = &handleEntry{h: h, cb: cb}
	r.order = append(r.order, h)
	return nil
}

// EnableHandle includes a registered handle in subsequent waits.
func (r *Reactor) EnableHandle(h windows.Handle) error {
	entry, ok := r.entries[h]
	if !ok {
		return fmt.Errorf("handle %v not registered", h)
	}
	entry.enabled = true
	return nil
}

// DisableHandle excludes a registered handle from subsequent waits.
func (r *Reactor) DisableHandle(h windows.Handle) error {
	entry, ok := r.entries[h]
	if !ok {
		return fmt.Errorf("handle %v not registered", h)
	}
	entry.enabled = false
	return nil
}

// RemoveHandle unregisters an event object. Dispatch jobs already queued
// for it are dropped.
func (r *Reactor) RemoveHandle(h windows.Handle) error {
	entry, ok := r.entries[h]
	if !ok {
		return fmt.Errorf("handle %v not registered", h)
	}
	entry.removed = true
	delete(r.entries, h)
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Wake interrupts a blocking Poll from another goroutine. It is the one
// reactor entry point that may be called off-thread.
func (r *Reactor) Wake() error {
	return windows.SetEvent(r.wake)
}

// Poll runs one sweep: wait for a signaled handle, queue its callback,
// then drain the queue. timeoutMs < 0 blocks indefinitely.
func (r *Reactor) Poll(timeoutMs int) error {
	handles := make([]windows.Handle, 0, len(r.order)+1)
	handles = append(handles, r.wake)
	waited := make([]*handleEntry, 0, len(r.order))
	n := len(r.order)
	for i := 0; i < n; i++ {
		h := r.order[(r.rotate+i)%n]
		entry := r.entries[h]
		if entry == nil || !entry.enabled {
			continue
		}
		handles = append(handles, h)
		waited = append(waited, entry)
	}
	if n > 0 {
		r.rotate = (r.rotate + 1) % n
	}

	timeout := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}
	event, err := windows.WaitForMultipleObjects(handles, false, timeout)
	if err != nil {
		return fmt.Errorf("wait for multiple objects: %w", err)
	}
	r.metrics.Inc("reactor.polls")
	if event == uint32(windows.WAIT_TIMEOUT) {
		return nil
	}
	idx := int(event - windows.WAIT_OBJECT_0)
	if idx < 0 || idx >= len(handles) {
		return fmt.Errorf("unexpected wait result %d", event)
	}
	if idx > 0 {
		entry := waited[idx-1]
		r.pending.push(func() {
			if entry.removed {
				return
			}
			r.metrics.Inc("reactor.dispatches")
			entry.cb()
		})
	}

	r.pending.drain()
	return nil
}

// Run polls until stop is closed.
func (r *Reactor) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := r.Poll(-1); err != nil {
			return err
		}
	}
}

// Close releases the wake event.
func (r *Reactor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return windows.CloseHandle(r.wake)
}
