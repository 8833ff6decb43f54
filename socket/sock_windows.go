//go:build windows
// +build windows

// File: socket/sock_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows syscall surface of the socket: creation, binding, accepting
// and the data path over the raw ws2_32 wrappers.

package socket

import (
	"fmt"
	"log"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/api"
)

type sysFd = windows.Handle

type sysSocket struct {
	fd    sysFd
	event windows.Handle
}

func closeRawFd(fd sysFd) {
	windows.Closesocket(fd)
}

func setNonblocking(fd windows.Handle) error {
	mode := uint32(1)
	return wsIoctlsocket(fd, fionbio, &mode)
}

func (s *Socket) sysOpen() error {
	af := int32(windows.AF_INET)
	if s.domain == api.DomainIPv6 {
		af = windows.AF_INET6
	}
	typ := int32(windows.SOCK_STREAM)
	if s.kind == api.Dgram {
		typ = windows.SOCK_DGRAM
	}
	fd, err := wsSocket(af, typ, 0)
	if err != nil {
		return fmt.Errorf("socket create: %w", err)
	}
	if err := setNonblocking(fd); err != nil {
		windows.Closesocket(fd)
		return fmt.Errorf("set nonblocking: %w", err)
	}

	if s.kind == api.Dgram {
		var optErr error
		if s.domain == api.DomainIPv4 {
			optErr = windows.SetsockoptInt(fd, windows.IPPROTO_IP, sockoptIPPktinfo, 1)
		} else {
			optErr = windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, sockoptIPv6Pktinfo, 1)
		}
		if optErr != nil {
			log.Printf("socket: packet info unavailable: %v", optErr)
		}
		s.havePktinfo = optErr == nil
	}

	s.sys.fd = fd
	return nil
}

func (s *Socket) sysClose() {
	windows.Closesocket(s.sys.fd)
}

func sysPrepareAccepted(fd sysFd) api.Errno {
	if err := setNonblocking(fd); err != nil {
		log.Printf("socket: set nonblocking on accepted socket: %v", err)
		return api.ErrUnknown
	}
	return api.ErrNone
}

func (s *Socket) sysConnect(addr api.Addr) api.Errno {
	raw, salen := addrToRaw(addr)
	if err := wsConnect(s.sys.fd, &raw, salen); err != nil {
		return mapConnectErrno(err)
	}
	return api.ErrNone
}

func (s *Socket) sysBind(addr api.Addr) api.Errno {
	if s.kind == api.Stream {
		if err := windows.SetsockoptInt(s.sys.fd, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
			log.Printf("socket: SO_REUSEADDR failed: %v", err)
		}
	}
	raw, salen := addrToRaw(addr)
	if err := wsBind(s.sys.fd, &raw, salen); err != nil {
		return mapBindErrno(err)
	}
	return api.ErrNone
}

func (s *Socket) sysListen(backlog int) api.Errno {
	if err := wsListen(s.sys.fd, int32(backlog)); err != nil {
		return mapListenErrno(err)
	}
	return api.ErrNone
}

func (s *Socket) sysAccept() (sysFd, api.Addr, api.Errno) {
	var raw windows.RawSockaddrAny
	salen := int32(unsafe.Sizeof(raw))
	nfd, err := wsAccept(s.sys.fd, &raw, &salen)
	if err != nil {
		return windows.InvalidHandle, api.Addr{}, mapAcceptErrno(err)
	}
	addr, errno := rawToAddr(&raw)
	if errno != api.ErrNone {
		windows.Closesocket(nfd)
		return windows.InvalidHandle, api.Addr{}, errno
	}
	return nfd, addr, api.ErrNone
}

func (s *Socket) sysSend(p []byte) (int, api.Errno) {
	n, err := wsSend(s.sys.fd, p, 0)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysRecv(p []byte) (int, api.Errno) {
	n, err := wsRecv(s.sys.fd, p, 0)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysSendTo(p []byte, addr api.Addr) (int, api.Errno) {
	raw, salen := addrToRaw(addr)
	n, err := wsSendto(s.sys.fd, p, 0, &raw, salen)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysRecvFrom(p []byte) (int, api.Addr, api.Errno) {
	var raw windows.RawSockaddrAny
	salen := int32(unsafe.Sizeof(raw))
	n, err := wsRecvfrom(s.sys.fd, p, 0, &raw, &salen)
	if err != nil {
		return 0, api.Addr{}, mapIOErrno(s.kind, err)
	}
	addr, errno := rawToAddr(&raw)
	if errno != api.ErrNone {
		return 0, api.Addr{}, errno
	}
	return n, addr, api.ErrNone
}

func (s *Socket) sysPeerName() (api.Addr, api.Errno) {
	var raw windows.RawSockaddrAny
	salen := int32(unsafe.Sizeof(raw))
	if err := wsGetpeername(s.sys.fd, &raw, &salen); err != nil {
		return api.Addr{}, api.ErrUnknown
	}
	return rawToAddr(&raw)
}

func (s *Socket) sysLocalName() (api.Addr, api.Errno) {
	var raw windows.RawSockaddrAny
	salen := int32(unsafe.Sizeof(raw))
	if err := wsGetsockname(s.sys.fd, &raw, &salen); err != nil {
		return api.Addr{}, api.ErrUnknown
	}
	return rawToAddr(&raw)
}
