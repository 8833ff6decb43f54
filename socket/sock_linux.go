//go:build linux
// +build linux

// File: socket/sock_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux syscall surface of the socket: creation, binding, accepting and
// the data path. Sockets are created non-blocking and close-on-exec in
// one call; sends carry MSG_NOSIGNAL so a dead stream peer surfaces as
// an error instead of SIGPIPE.

package socket

import (
	"fmt"
	"log"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
)

type sysFd = int

type sysSocket struct {
	fd sysFd
}

func closeRawFd(fd sysFd) {
	unix.Close(fd)
}

func (s *Socket) sysOpen() error {
	af := unix.AF_INET
	if s.domain == api.DomainIPv6 {
		af = unix.AF_INET6
	}
	typ := unix.SOCK_STREAM
	if s.kind == api.Dgram {
		typ = unix.SOCK_DGRAM
	}
	fd, err := unix.Socket(af, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("socket create: %w", err)
	}

	if s.kind == api.Dgram {
		var optErr error
		if s.domain == api.DomainIPv4 {
			optErr = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_PKTINFO, 1)
		} else {
			optErr = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, 1)
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
	unix.Close(s.sys.fd)
}

// sysPrepareAccepted has nothing to do on Linux: Accept4 already returned
// the descriptor non-blocking.
func sysPrepareAccepted(fd sysFd) api.Errno {
	return api.ErrNone
}

func (s *Socket) sysConnect(addr api.Addr) api.Errno {
	err := unix.Connect(s.sys.fd, addrToSockaddr(addr))
	if err == nil {
		return api.ErrNone
	}
	return mapConnectErrno(err)
}

func (s *Socket) sysBind(addr api.Addr) api.Errno {
	if s.kind == api.Stream {
		if err := unix.SetsockoptInt(s.sys.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			log.Printf("socket: SO_REUSEADDR failed: %v", err)
		}
	}
	if err := unix.Bind(s.sys.fd, addrToSockaddr(addr)); err != nil {
		return mapBindErrno(err)
	}
	return api.ErrNone
}

func (s *Socket) sysListen(backlog int) api.Errno {
	if err := unix.Listen(s.sys.fd, backlog); err != nil {
		return mapListenErrno(err)
	}
	return api.ErrNone
}

func (s *Socket) sysAccept() (sysFd, api.Addr, api.Errno) {
	nfd, sa, err := unix.Accept4(s.sys.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, api.Addr{}, mapAcceptErrno(err)
	}
	addr, errno := sockaddrToAddr(sa)
	if errno != api.ErrNone {
		unix.Close(nfd)
		return -1, api.Addr{}, errno
	}
	return nfd, addr, api.ErrNone
}

func (s *Socket) sysSend(p []byte) (int, api.Errno) {
	n, err := unix.SendmsgN(s.sys.fd, p, nil, nil, unix.MSG_NOSIGNAL)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysRecv(p []byte) (int, api.Errno) {
	n, _, err := unix.Recvfrom(s.sys.fd, p, 0)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysSendTo(p []byte, addr api.Addr) (int, api.Errno) {
	n, err := unix.SendmsgN(s.sys.fd, p, nil, addrToSockaddr(addr), unix.MSG_NOSIGNAL)
	if err != nil {
		return 0, mapIOErrno(s.kind, err)
	}
	return n, api.ErrNone
}

func (s *Socket) sysRecvFrom(p []byte) (int, api.Addr, api.Errno) {
	n, sa, err := unix.Recvfrom(s.sys.fd, p, 0)
	if err != nil {
		return 0, api.Addr{}, mapIOErrno(s.kind, err)
	}
	addr, errno := sockaddrToAddr(sa)
	if errno != api.ErrNone {
		return 0, api.Addr{}, errno
	}
	return n, addr, api.ErrNone
}

func (s *Socket) sysPeerName() (api.Addr, api.Errno) {
	sa, err := unix.Getpeername(s.sys.fd)
	if err != nil {
		return api.Addr{}, api.ErrUnknown
	}
	return sockaddrToAddr(sa)
}

func (s *Socket) sysLocalName() (api.Addr, api.Errno) {
	sa, err := unix.Getsockname(s.sys.fd)
	if err != nil {
		return api.Addr{}, api.ErrUnknown
	}
	return sockaddrToAddr(sa)
}
