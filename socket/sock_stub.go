//go:build !linux && !windows
// +build !linux,!windows

// File: socket/sock_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without a socket backend.

package socket

import (
	"errors"

	"github.com/momentics/hioload-sock/api"
)

type sysFd = int

type sysSocket struct {
	fd sysFd
}

var errUnsupported = errors.New("socket: platform not supported")

func closeRawFd(fd sysFd) {}

func sysGlobalInit() error { return errUnsupported }

func sysPrepareAccepted(fd sysFd) api.Errno { return api.ErrUnknown }

func (s *Socket) sysOpen() error { return errUnsupported }

func (s *Socket) sysClose() {}

func (s *Socket) registerBackend() error { return errUnsupported }

func (s *Socket) unregisterBackend() {}

func (s *Socket) updateBackend() {}

func (s *Socket) sysConnect(addr api.Addr) api.Errno { return api.ErrUnknown }

func (s *Socket) sysBind(addr api.Addr) api.Errno { return api.ErrUnknown }

func (s *Socket) sysListen(backlog int) api.Errno { return api.ErrUnknown }

func (s *Socket) sysAccept() (sysFd, api.Addr, api.Errno) {
	return -1, api.Addr{}, api.ErrUnknown
}

func (s *Socket) sysSend(p []byte) (int, api.Errno) { return 0, api.ErrUnknown }

func (s *Socket) sysRecv(p []byte) (int, api.Errno) { return 0, api.ErrUnknown }

func (s *Socket) sysSendTo(p []byte, addr api.Addr) (int, api.Errno) {
	return 0, api.ErrUnknown
}

func (s *Socket) sysRecvFrom(p []byte) (int, api.Addr, api.Errno) {
	return 0, api.Addr{}, api.ErrUnknown
}

func (s *Socket) sendToFromPktinfo(p []byte, addr api.Addr, local api.IPAddr) (int, error) {
	return 0, s.fail(api.ErrUnknown)
}

func (s *Socket) recvFromToPktinfo(p []byte, addr *api.Addr, local *api.IPAddr) (int, error) {
	return 0, s.fail(api.ErrUnknown)
}

func (s *Socket) sysPeerName() (api.Addr, api.Errno) { return api.Addr{}, api.ErrUnknown }

func (s *Socket) sysLocalName() (api.Addr, api.Errno) { return api.Addr{}, api.ErrUnknown }
