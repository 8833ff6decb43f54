//go:build linux
// +build linux

// File: socket/sockaddr_linux.go
// Author: momentics <momentics@gmail.com>
//
// Translation between portable addresses and unix.Sockaddr values.
// IPv6 scope and flow information are sent as zero and ignored on
// receive; scoped addresses are not supported.

package socket

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
)

func addrToSockaddr(a api.Addr) unix.Sockaddr {
	switch a.Type {
	case api.AddrIPv4:
		return &unix.SockaddrInet4{Port: int(a.Port), Addr: a.IP4}
	case api.AddrIPv6:
		return &unix.SockaddrInet6{Port: int(a.Port), Addr: a.IP6}
	default:
		panic("socket: invalid address")
	}
}

func sockaddrToAddr(sa unix.Sockaddr) (api.Addr, api.Errno) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return api.IPv4Addr(v.Addr, uint16(v.Port)), api.ErrNone
	case *unix.SockaddrInet6:
		return api.IPv6Addr(v.Addr, uint16(v.Port)), api.ErrNone
	default:
		return api.Addr{}, api.ErrUnknown
	}
}
