//go:build windows
// +build windows

// File: socket/backend_windows.go
// Author: momentics <momentics@gmail.com>
//
// Network-event backend adapter. Each socket owns a manual-reset event
// object associated with it through WSAEventSelect; the reactor waits on
// the object and the adapter enumerates fired FD_* bits, translating
// them back to logical events limited by the current wait set. FD_CLOSE
// feeds both read and write so a peer close wakes whoever is waiting.
// The FD_CONNECT notification carries the connect result as a per-event
// error code, recorded before handlers run.

package socket

import (
	"log"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/api"
)

func fdEventMask(events api.Event) int32 {
	var mask int32
	if events&api.EventRead != 0 {
		mask |= fdRead | fdClose
	}
	if events&api.EventWrite != 0 {
		mask |= fdWrite | fdClose
	}
	if events&api.EventAccept != 0 {
		mask |= fdAccept
	}
	if events&api.EventConnect != 0 {
		mask |= fdConnect
	}
	return mask
}

func (s *Socket) registerBackend() error {
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return err
	}
	if err := s.reactor.AddHandle(event, s.onSignal); err != nil {
		windows.CloseHandle(event)
		return err
	}
	if err := s.reactor.EnableHandle(event); err != nil {
		s.reactor.RemoveHandle(event)
		windows.CloseHandle(event)
		return err
	}
	s.sys.event = event
	return nil
}

func (s *Socket) unregisterBackend() {
	if err := s.reactor.RemoveHandle(s.sys.event); err != nil {
		log.Printf("socket: unregister handle: %v", err)
	}
	windows.CloseHandle(s.sys.event)
}

func (s *Socket) updateBackend() {
	if err := wsaEventSelect(s.sys.fd, s.sys.event, fdEventMask(s.waitEvents)); err != nil {
		panic("socket: WSAEventSelect: " + err.Error())
	}
}

func (s *Socket) onSignal() {
	var nev wsaNetworkEvents
	if err := wsaEnumNetworkEvents(s.sys.fd, s.sys.event, &nev); err != nil {
		panic("socket: WSAEnumNetworkEvents: " + err.Error())
	}

	var returned api.Event

	if s.waitEvents&api.EventRead != 0 && nev.NetworkEvents&(fdRead|fdClose) != 0 {
		returned |= api.EventRead
	}
	if s.waitEvents&api.EventWrite != 0 && nev.NetworkEvents&(fdWrite|fdClose) != 0 {
		returned |= api.EventWrite
	}
	if s.waitEvents&api.EventAccept != 0 && nev.NetworkEvents&fdAccept != 0 {
		returned |= api.EventAccept
	}
	if s.waitEvents&api.EventConnect != 0 && nev.NetworkEvents&fdConnect != 0 {
		s.completeConnect(mapConnectCode(nev.ErrorCode[fdConnectBit]))
		returned |= api.EventConnect
	}

	s.dispatch(returned)
}
