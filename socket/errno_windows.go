//go:build windows
// +build windows

// File: socket/errno_windows.go
// Author: momentics <momentics@gmail.com>
//
// WSA error translation into the stable taxonomy, one mapping per
// operation family. Codes not listed collapse to ErrUnknown so no
// OS-specific value leaks through the public surface.

package socket

import (
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/api"
)

func mapBindErrno(err error) api.Errno {
	switch err {
	case windows.WSAEADDRNOTAVAIL:
		return api.ErrAddressNotAvailable
	case windows.WSAEADDRINUSE:
		return api.ErrAddressInUse
	case windows.WSAEACCES:
		return api.ErrAccessDenied
	default:
		return api.ErrUnknown
	}
}

func mapListenErrno(err error) api.Errno {
	switch err {
	case windows.WSAEADDRINUSE:
		return api.ErrAddressInUse
	default:
		return api.ErrUnknown
	}
}

func mapAcceptErrno(err error) api.Errno {
	switch err {
	case windows.WSAEWOULDBLOCK:
		return api.ErrLater
	default:
		return api.ErrUnknown
	}
}

// mapIOErrno covers send and receive families. A peer reset on a
// datagram socket reports as refused: winsock raises WSAECONNRESET on a
// connected datagram socket when an earlier send drew an ICMP
// unreachable, which is not a stream close.
func mapIOErrno(kind api.SocketKind, err error) api.Errno {
	switch err {
	case windows.WSAEWOULDBLOCK:
		return api.ErrLater
	case windows.WSAECONNRESET:
		if kind == api.Dgram {
			return api.ErrConnectionRefused
		}
		return api.ErrConnectionReset
	default:
		return api.ErrUnknown
	}
}

func mapConnectErrno(err error) api.Errno {
	switch err {
	case windows.WSAEWOULDBLOCK:
		return api.ErrInProgress
	default:
		return api.ErrUnknown
	}
}

// mapConnectCode translates the FD_CONNECT per-event error code from
// WSAEnumNetworkEvents.
func mapConnectCode(code int32) api.Errno {
	switch syscall.Errno(code) {
	case 0:
		return api.ErrNone
	case windows.WSAETIMEDOUT:
		return api.ErrConnectionTimedOut
	case windows.WSAECONNREFUSED:
		return api.ErrConnectionRefused
	default:
		return api.ErrUnknown
	}
}
