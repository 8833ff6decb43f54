//go:build linux
// +build linux

// File: socket/errno_linux.go
// Author: momentics <momentics@gmail.com>
//
// errno translation into the stable taxonomy, one mapping per operation
// family. Codes not listed collapse to ErrUnknown so no OS-specific
// value leaks through the public surface.

package socket

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
)

func mapBindErrno(err error) api.Errno {
	switch err {
	case unix.EADDRNOTAVAIL:
		return api.ErrAddressNotAvailable
	case unix.EADDRINUSE:
		return api.ErrAddressInUse
	case unix.EACCES:
		return api.ErrAccessDenied
	default:
		return api.ErrUnknown
	}
}

func mapListenErrno(err error) api.Errno {
	switch err {
	case unix.EADDRINUSE:
		return api.ErrAddressInUse
	default:
		return api.ErrUnknown
	}
}

func mapAcceptErrno(err error) api.Errno {
	switch err {
	case unix.EAGAIN:
		return api.ErrLater
	default:
		return api.ErrUnknown
	}
}

// mapIOErrno covers send and receive families. A peer reset on a
// datagram socket reports as refused: the usual cause is an ICMP
// unreachable generated by an earlier datagram, not a stream close.
func mapIOErrno(kind api.SocketKind, err error) api.Errno {
	switch err {
	case unix.EAGAIN:
		return api.ErrLater
	case unix.ECONNREFUSED:
		return api.ErrConnectionRefused
	case unix.ECONNRESET:
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
	case unix.EINPROGRESS:
		return api.ErrInProgress
	default:
		return api.ErrUnknown
	}
}

// mapSoError translates the SO_ERROR value read at connect completion.
func mapSoError(code int) api.Errno {
	switch code {
	case 0:
		return api.ErrNone
	case int(unix.ETIMEDOUT):
		return api.ErrConnectionTimedOut
	case int(unix.ECONNREFUSED):
		return api.ErrConnectionRefused
	default:
		return api.ErrUnknown
	}
}
