//go:build windows
// +build windows

// File: socket/sockaddr_windows.go
// Author: momentics <momentics@gmail.com>
//
// Translation between portable addresses and raw winsock sockaddr
// storage. Ports are swapped to network order here; flow and scope
// fields are sent as zero and ignored on receive.

package socket

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/api"
)

type rawSockaddrInet4 struct {
	Family uint16
	Port   [2]byte
	Addr   [4]byte
	Zero   [8]byte
}

type rawSockaddrInet6 struct {
	Family   uint16
	Port     [2]byte
	Flowinfo uint32
	Addr     [16]byte
	ScopeID  uint32
}

func addrToRaw(a api.Addr) (windows.RawSockaddrAny, int32) {
	var raw windows.RawSockaddrAny
	switch a.Type {
	case api.AddrIPv4:
		sa := (*rawSockaddrInet4)(unsafe.Pointer(&raw))
		sa.Family = windows.AF_INET
		binary.BigEndian.PutUint16(sa.Port[:], a.Port)
		sa.Addr = a.IP4
		return raw, int32(unsafe.Sizeof(rawSockaddrInet4{}))
	case api.AddrIPv6:
		sa := (*rawSockaddrInet6)(unsafe.Pointer(&raw))
		sa.Family = windows.AF_INET6
		binary.BigEndian.PutUint16(sa.Port[:], a.Port)
		sa.Flowinfo = 0
		sa.Addr = a.IP6
		sa.ScopeID = 0
		return raw, int32(unsafe.Sizeof(rawSockaddrInet6{}))
	default:
		panic("socket: invalid address")
	}
}

func rawToAddr(raw *windows.RawSockaddrAny) (api.Addr, api.Errno) {
	switch raw.Addr.Family {
	case windows.AF_INET:
		sa := (*rawSockaddrInet4)(unsafe.Pointer(raw))
		return api.IPv4Addr(sa.Addr, binary.BigEndian.Uint16(sa.Port[:])), api.ErrNone
	case windows.AF_INET6:
		sa := (*rawSockaddrInet6)(unsafe.Pointer(raw))
		return api.IPv6Addr(sa.Addr, binary.BigEndian.Uint16(sa.Port[:])), api.ErrNone
	default:
		return api.Addr{}, api.ErrUnknown
	}
}
