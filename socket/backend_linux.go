//go:build linux
// +build linux

// File: socket/backend_linux.go
// Author: momentics <momentics@gmail.com>
//
// Readiness backend adapter. Read and Accept wait on readable, Write and
// Connect on writable. Incoming readiness is translated back to logical
// events limited by the current wait set; writable readiness during a
// pending connect is resolved to a completion result through SO_ERROR
// before handlers run.

package socket

import (
	"log"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/reactor"
)

func readinessFor(events api.Event) reactor.Readiness {
	var ready reactor.Readiness
	if events&(api.EventRead|api.EventAccept) != 0 {
		ready |= reactor.ReadReady
	}
	if events&(api.EventWrite|api.EventConnect) != 0 {
		ready |= reactor.WriteReady
	}
	return ready
}

func (s *Socket) registerBackend() error {
	return s.reactor.AddFd(s.sys.fd, s.onReadiness)
}

func (s *Socket) unregisterBackend() {
	if err := s.reactor.RemoveFd(s.sys.fd); err != nil {
		log.Printf("socket: unregister fd %d: %v", s.sys.fd, err)
	}
}

func (s *Socket) updateBackend() {
	if err := s.reactor.SetFdEvents(s.sys.fd, readinessFor(s.waitEvents)); err != nil {
		panic("socket: reprogram reactor mask: " + err.Error())
	}
}

func (s *Socket) onReadiness(ready reactor.Readiness) {
	var returned api.Event

	if s.waitEvents&api.EventRead != 0 && ready&reactor.ReadReady != 0 {
		returned |= api.EventRead
	}
	if s.waitEvents&api.EventWrite != 0 && ready&reactor.WriteReady != 0 {
		returned |= api.EventWrite
	}
	if s.waitEvents&api.EventAccept != 0 && ready&reactor.ReadReady != 0 {
		returned |= api.EventAccept
	}
	if s.waitEvents&api.EventConnect != 0 && ready&reactor.WriteReady != 0 {
		code, err := unix.GetsockoptInt(s.sys.fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			panic("socket: SO_ERROR: " + err.Error())
		}
		s.completeConnect(mapSoError(code))
		returned |= api.EventConnect
	}

	s.dispatch(returned)
}
