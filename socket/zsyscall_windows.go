//go:build windows
// +build windows

// File: socket/zsyscall_windows.go
// Author: momentics <momentics@gmail.com>
//
// Hand-maintained ws2_32.dll wrappers for the winsock entry points that
// golang.org/x/sys/windows does not export. Winsock reports failures
// through the same thread-local slot as GetLastError, so the errno
// returned by the call layer is the WSA error code.

package socket

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const socketError = -1

// Network event bits accepted by WSAEventSelect and reported by
// WSAEnumNetworkEvents, matching winsock2.h.
const (
	fdRead    = 0x01
	fdWrite   = 0x02
	fdOOB     = 0x04
	fdAccept  = 0x08
	fdConnect = 0x10
	fdClose   = 0x20

	fdConnectBit = 4
	fdMaxEvents  = 10
)

const fionbio = 0x8004667e

// Windows socket option values absent from x/sys/windows.
const (
	sockoptIPPktinfo   = 19 // IP_PKTINFO
	sockoptIPv6Pktinfo = 19 // IPV6_PKTINFO (doubles as the receive option)
)

type wsaNetworkEvents struct {
	NetworkEvents int32
	ErrorCode     [fdMaxEvents]int32
}

var (
	modws2_32 = windows.NewLazySystemDLL("ws2_32.dll")

	procsocket               = modws2_32.NewProc("socket")
	procbind                 = modws2_32.NewProc("bind")
	proclisten               = modws2_32.NewProc("listen")
	procconnect              = modws2_32.NewProc("connect")
	procaccept               = modws2_32.NewProc("accept")
	procsend                 = modws2_32.NewProc("send")
	procrecv                 = modws2_32.NewProc("recv")
	procsendto               = modws2_32.NewProc("sendto")
	procrecvfrom             = modws2_32.NewProc("recvfrom")
	procioctlsocket          = modws2_32.NewProc("ioctlsocket")
	procgetsockname          = modws2_32.NewProc("getsockname")
	procgetpeername          = modws2_32.NewProc("getpeername")
	procWSAEventSelect       = modws2_32.NewProc("WSAEventSelect")
	procWSAEnumNetworkEvents = modws2_32.NewProc("WSAEnumNetworkEvents")
)

func errnoErr(e error) error {
	if errno, ok := e.(syscall.Errno); ok && errno != 0 {
		return errno
	}
	return syscall.EINVAL
}

// sliceBase returns the address of the first byte, or nil for an empty
// slice, so zero-length buffers are legal in the raw calls.
func sliceBase(p []byte) *byte {
	if len(p) == 0 {
		return nil
	}
	return &p[0]
}

func wsSocket(af, typ, proto int32) (windows.Handle, error) {
	r1, _, e1 := procsocket.Call(uintptr(af), uintptr(typ), uintptr(proto))
	h := windows.Handle(r1)
	if h == windows.InvalidHandle {
		return h, errnoErr(e1)
	}
	return h, nil
}

func wsBind(fd windows.Handle, sa *windows.RawSockaddrAny, salen int32) error {
	r1, _, e1 := procbind.Call(uintptr(fd), uintptr(unsafe.Pointer(sa)), uintptr(salen))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsListen(fd windows.Handle, backlog int32) error {
	r1, _, e1 := proclisten.Call(uintptr(fd), uintptr(backlog))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsConnect(fd windows.Handle, sa *windows.RawSockaddrAny, salen int32) error {
	r1, _, e1 := procconnect.Call(uintptr(fd), uintptr(unsafe.Pointer(sa)), uintptr(salen))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsAccept(fd windows.Handle, sa *windows.RawSockaddrAny, salen *int32) (windows.Handle, error) {
	r1, _, e1 := procaccept.Call(uintptr(fd), uintptr(unsafe.Pointer(sa)), uintptr(unsafe.Pointer(salen)))
	h := windows.Handle(r1)
	if h == windows.InvalidHandle {
		return h, errnoErr(e1)
	}
	return h, nil
}

func wsSend(fd windows.Handle, p []byte, flags int32) (int, error) {
	r1, _, e1 := procsend.Call(uintptr(fd), uintptr(unsafe.Pointer(sliceBase(p))), uintptr(int32(len(p))), uintptr(flags))
	if int32(r1) == socketError {
		return 0, errnoErr(e1)
	}
	return int(int32(r1)), nil
}

func wsRecv(fd windows.Handle, p []byte, flags int32) (int, error) {
	r1, _, e1 := procrecv.Call(uintptr(fd), uintptr(unsafe.Pointer(sliceBase(p))), uintptr(int32(len(p))), uintptr(flags))
	if int32(r1) == socketError {
		return 0, errnoErr(e1)
	}
	return int(int32(r1)), nil
}

func wsSendto(fd windows.Handle, p []byte, flags int32, sa *windows.RawSockaddrAny, salen int32) (int, error) {
	r1, _, e1 := procsendto.Call(uintptr(fd), uintptr(unsafe.Pointer(sliceBase(p))), uintptr(int32(len(p))), uintptr(flags),
		uintptr(unsafe.Pointer(sa)), uintptr(salen))
	if int32(r1) == socketError {
		return 0, errnoErr(e1)
	}
	return int(int32(r1)), nil
}

func wsRecvfrom(fd windows.Handle, p []byte, flags int32, sa *windows.RawSockaddrAny, salen *int32) (int, error) {
	r1, _, e1 := procrecvfrom.Call(uintptr(fd), uintptr(unsafe.Pointer(sliceBase(p))), uintptr(int32(len(p))), uintptr(flags),
		uintptr(unsafe.Pointer(sa)), uintptr(unsafe.Pointer(salen)))
	if int32(r1) == socketError {
		return 0, errnoErr(e1)
	}
	return int(int32(r1)), nil
}

func wsIoctlsocket(fd windows.Handle, cmd uint32, arg *uint32) error {
	r1, _, e1 := procioctlsocket.Call(uintptr(fd), uintptr(cmd), uintptr(unsafe.Pointer(arg)))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsGetsockname(fd windows.Handle, sa *windows.RawSockaddrAny, salen *int32) error {
	r1, _, e1 := procgetsockname.Call(uintptr(fd), uintptr(unsafe.Pointer(sa)), uintptr(unsafe.Pointer(salen)))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsGetpeername(fd windows.Handle, sa *windows.RawSockaddrAny, salen *int32) error {
	r1, _, e1 := procgetpeername.Call(uintptr(fd), uintptr(unsafe.Pointer(sa)), uintptr(unsafe.Pointer(salen)))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsaEventSelect(fd windows.Handle, event windows.Handle, networkEvents int32) error {
	r1, _, e1 := procWSAEventSelect.Call(uintptr(fd), uintptr(event), uintptr(networkEvents))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}

func wsaEnumNetworkEvents(fd windows.Handle, event windows.Handle, events *wsaNetworkEvents) error {
	r1, _, e1 := procWSAEnumNetworkEvents.Call(uintptr(fd), uintptr(event), uintptr(unsafe.Pointer(events)))
	if int32(r1) == socketError {
		return errnoErr(e1)
	}
	return nil
}
