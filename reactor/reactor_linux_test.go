//go:build linux
// +build linux

// File: reactor/reactor_linux_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"

	"golang.org/x/sys/unix"
)

func newTestReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("new reactor: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testSocketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

// TestReactorDeliversReadReadiness checks the basic register/mask/poll
// cycle and the dispatch counters.
func TestReactorDeliversReadReadiness(t *testing.T) {
	r := newTestReactor(t)
	fd0, fd1 := testSocketpair(t)

	var got Readiness
	if err := r.AddFd(fd0, func(ready Readiness) { got |= ready }); err != nil {
		t.Fatalf("add fd: %v", err)
	}
	if err := r.SetFdEvents(fd0, ReadReady); err != nil {
		t.Fatalf("set events: %v", err)
	}

	if _, err := unix.Write(fd1, []byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Poll(1000); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got&ReadReady == 0 {
		t.Fatal("read readiness not delivered")
	}
	if r.Metrics().Get("reactor.dispatches") == 0 {
		t.Error("dispatch counter not incremented")
	}
}

// TestReactorMaskLimitsDelivery checks that readiness outside the
// programmed mask is not delivered.
func TestReactorMaskLimitsDelivery(t *testing.T) {
	r := newTestReactor(t)
	fd0, fd1 := testSocketpair(t)

	var got Readiness
	if err := r.AddFd(fd0, func(ready Readiness) { got |= ready }); err != nil {
		t.Fatalf("add fd: %v", err)
	}
	if err := r.SetFdEvents(fd0, WriteReady); err != nil {
		t.Fatalf("set events: %v", err)
	}

	// Data is pending but only write readiness is selected.
	if _, err := unix.Write(fd1, []byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Poll(1000); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got&ReadReady != 0 {
		t.Fatal("read readiness delivered outside the mask")
	}
	if got&WriteReady == 0 {
		t.Fatal("write readiness not delivered")
	}
}

// TestReactorRemoveFdStopsDelivery checks that an unregistered fd no
// longer reaches its callback.
func TestReactorRemoveFdStopsDelivery(t *testing.T) {
	r := newTestReactor(t)
	fd0, fd1 := testSocketpair(t)

	calls := 0
	if err := r.AddFd(fd0, func(Readiness) { calls++ }); err != nil {
		t.Fatalf("add fd: %v", err)
	}
	if err := r.SetFdEvents(fd0, ReadReady); err != nil {
		t.Fatalf("set events: %v", err)
	}
	if err := r.RemoveFd(fd0); err != nil {
		t.Fatalf("remove fd: %v", err)
	}

	if _, err := unix.Write(fd1, []byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Poll(50); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times after removal", calls)
	}
}

// TestReactorWake checks that Wake succeeds and that a following poll
// consumes the pending wake without error.
func TestReactorWake(t *testing.T) {
	r := newTestReactor(t)
	if err := r.Wake(); err != nil {
		t.Fatalf("wake: %v", err)
	}
	if err := r.Poll(1000); err != nil {
		t.Fatalf("poll: %v", err)
	}
}
