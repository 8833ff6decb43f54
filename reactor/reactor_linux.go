//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor. Registration starts with an empty event
// mask; SetFdEvents reprograms the kernel mask, and readiness handed to
// callbacks is limited to the selected mask. EPOLLERR/EPOLLHUP wake the
// registrant with whatever it is waiting for, so the owning socket can
// observe the failure through its own syscalls.

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/control"
)

type fdEntry struct {
	fd      int
	mask    Readiness
	cb      FdCallback
	removed bool
}

// Reactor is the Linux readiness-based event loop.
type Reactor struct {
	epfd    int
	wakeFd  int
	fds     map[int]*fdEntry
	pending *pendingQueue
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	closed  bool
}

// New creates a reactor with an epoll instance and an eventfd used by Wake.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &ev); err != nil {
		unix.Close(wakeFd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wake fd: %w", err)
	}
	r := &Reactor{
		epfd:    epfd,
		wakeFd:  wakeFd,
		fds:     make(map[int]*fdEntry),
		pending: newPendingQueue(),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	r.probes.RegisterProbe("reactor.fds", func() any { return len(r.fds) })
	r.probes.RegisterProbe("reactor.pending", func() any { return r.pending.len() })
	return r, nil
}

// Metrics exposes the reactor's counter registry.
func (r *Reactor) Metrics() *control.MetricsRegistry { return r.metrics }

// Probes exposes the reactor's debug probe registry.
func (r *Reactor) Probes() *control.DebugProbes { return r.probes }

// AddFd registers a file descriptor with an empty event mask.
func (r *Reactor) AddFd(fd int, cb FdCallback) error {
	if _, dup := r.fds[fd]; dup {
		return fmt.Errorf("fd %d already registered", fd)
	}
	ev := unix.EpollEvent{Events: 0, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	r.fds[fd] = &fdEntry{fd: fd, cb: cb}
	return nil
}

// SetFdEvents reprograms the kernel-level mask for a registered fd. The
// change takes effect for the next poll sweep.
func (r *Reactor) SetFdEvents(fd int, mask Readiness) error {
	entry, ok := r.fds[fd]
	if !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	var events uint32
	if mask&ReadReady != 0 {
		events |= unix.EPOLLIN
	}
	if mask&WriteReady != 0 {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	entry.mask = mask
	return nil
}

// RemoveFd unregisters a file descriptor. Dispatch jobs already queued for
// it are dropped.
func (r *Reactor) RemoveFd(fd int) error {
	entry, ok := r.fds[fd]
	if !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	entry.removed = true
	delete(r.fds, fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Wake interrupts a blocking Poll from another goroutine. It is the one
// reactor entry point that may be called off-thread.
func (r *Reactor) Wake() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(r.wakeFd, one[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// Poll runs one sweep: wait for readiness, queue the callbacks of every
// fired fd, then drain the queue. timeoutMs < 0 blocks indefinitely.
func (r *Reactor) Poll(timeoutMs int) error {
	var events [128]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("epoll wait: %w", err)
	}
	r.metrics.Inc("reactor.polls")

	for i := 0; i < n; i++ {
		ev := events[i]
		fd := int(ev.Fd)
		if fd == r.wakeFd {
			r.drainWakeFd()
			continue
		}
		entry, ok := r.fds[fd]
		if !ok {
			continue
		}
		var ready Readiness
		if ev.Events&unix.EPOLLIN != 0 {
			ready |= ReadReady
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			ready |= WriteReady
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			ready |= entry.mask
		}
		ready &= entry.mask
		if ready == 0 {
			continue
		}
		e, rd := entry, ready
		r.pending.push(func() {
			if e.removed {
				return
			}
			r.metrics.Inc("reactor.dispatches")
			e.cb(rd)
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

// Close releases the epoll instance and the wake fd.
func (r *Reactor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	unix.Close(r.wakeFd)
	return unix.Close(r.epfd)
}

func (r *Reactor) drainWakeFd() {
	var buf [8]byte
	for {
		_, err := unix.Read(r.wakeFd, buf[:])
		if err != nil {
			return
		}
	}
}
