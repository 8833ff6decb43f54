//go:build windows
// +build windows

// File: socket/pktinfo_windows.go
// Author: momentics <momentics@gmail.com>
//
// Datagram ancillary engine over WSASendMsg/WSARecvMsg. The two
// extension functions are resolved per call through
// SIO_GET_EXTENSION_FUNCTION_POINTER; when resolution fails the
// operation degrades to the plain sendto/recvfrom path. Control buffers
// use the WSA_CMSG layout, whose header carries the length as SIZE_T, so
// records align on pointer size. The outgoing IPv4 source goes into the
// pktinfo Addr field (unlike the POSIX Spec_dst).

package socket

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sock/api"
)

type wsaBuf struct {
	Len uint32
	Buf *byte
}

type wsaMsg struct {
	Name        *windows.RawSockaddrAny
	Namelen     int32
	Buffers     *wsaBuf
	BufferCount uint32
	Control     wsaBuf
	Flags       uint32
}

// wsaCmsghdr mirrors WSACMSGHDR: the length field is SIZE_T.
type wsaCmsghdr struct {
	Len   uintptr
	Level int32
	Type  int32
}

type inPktinfo struct {
	Addr    [4]byte
	Ifindex uint32
}

type in6Pktinfo struct {
	Addr    [16]byte
	Ifindex uint32
}

var (
	wsaidWSASendMsg = windows.GUID{Data1: 0xa441e712, Data2: 0x754f, Data3: 0x43ca,
		Data4: [8]byte{0x84, 0xa7, 0x0d, 0xee, 0x44, 0xcf, 0x60, 0x6d}}
	wsaidWSARecvMsg = windows.GUID{Data1: 0xf689d7c8, Data2: 0x6f1f, Data3: 0x436b,
		Data4: [8]byte{0x8a, 0x53, 0xe5, 0x4f, 0xe3, 0x51, 0xc3, 0x22}}
)

func wsaCmsgAlign(n uintptr) uintptr {
	align := unsafe.Sizeof(uintptr(0))
	return (n + align - 1) &^ (align - 1)
}

func wsaCmsgSpace(datalen uintptr) uintptr {
	return wsaCmsgAlign(unsafe.Sizeof(wsaCmsghdr{})) + wsaCmsgAlign(datalen)
}

func wsaCmsgLen(datalen uintptr) uintptr {
	return wsaCmsgAlign(unsafe.Sizeof(wsaCmsghdr{})) + datalen
}

// loadExtensionFn resolves a winsock extension function pointer for this
// socket.
func loadExtensionFn(fd windows.Handle, guid windows.GUID) (uintptr, error) {
	var fn uintptr
	var returned uint32
	err := windows.WSAIoctl(fd, windows.SIO_GET_EXTENSION_FUNCTION_POINTER,
		(*byte)(unsafe.Pointer(&guid)), uint32(unsafe.Sizeof(guid)),
		(*byte)(unsafe.Pointer(&fn)), uint32(unsafe.Sizeof(fn)),
		&returned, nil, 0)
	if err != nil {
		return 0, err
	}
	return fn, nil
}

// buildWsaPktinfo produces the control buffer for one outgoing datagram:
// empty for IPNone, otherwise exactly one packet-info record keyed by
// the address family of local.
func buildWsaPktinfo(local api.IPAddr) []byte {
	switch local.Type {
	case api.AddrIPv4:
		b := make([]byte, wsaCmsgSpace(unsafe.Sizeof(inPktinfo{})))
		h := (*wsaCmsghdr)(unsafe.Pointer(&b[0]))
		h.Level = windows.IPPROTO_IP
		h.Type = sockoptIPPktinfo
		h.Len = wsaCmsgLen(unsafe.Sizeof(inPktinfo{}))
		pi := (*inPktinfo)(unsafe.Pointer(&b[wsaCmsgLen(0)]))
		pi.Addr = local.IP4
		return b
	case api.AddrIPv6:
		b := make([]byte, wsaCmsgSpace(unsafe.Sizeof(in6Pktinfo{})))
		h := (*wsaCmsghdr)(unsafe.Pointer(&b[0]))
		h.Level = windows.IPPROTO_IPV6
		h.Type = sockoptIPv6Pktinfo
		h.Len = wsaCmsgLen(unsafe.Sizeof(in6Pktinfo{}))
		pi := (*in6Pktinfo)(unsafe.Pointer(&b[wsaCmsgLen(0)]))
		pi.Addr = local.IP6
		return b
	default:
		return nil
	}
}

// parseWsaPktinfo extracts the local destination IP from received
// control records. Records other than packet info are ignored; with no
// matching record the result is IPNone.
func parseWsaPktinfo(b []byte) api.IPAddr {
	local := api.NoIP()
	hdrSize := unsafe.Sizeof(wsaCmsghdr{})
	for off := uintptr(0); off+hdrSize <= uintptr(len(b)); {
		h := (*wsaCmsghdr)(unsafe.Pointer(&b[off]))
		if h.Len < hdrSize || off+h.Len > uintptr(len(b)) {
			break
		}
		data := off + wsaCmsgLen(0)
		if h.Level == windows.IPPROTO_IP && h.Type == sockoptIPPktinfo &&
			h.Len-wsaCmsgLen(0) >= unsafe.Sizeof(inPktinfo{}) {
			pi := (*inPktinfo)(unsafe.Pointer(&b[data]))
			local = api.IPv4IP(pi.Addr)
		} else if h.Level == windows.IPPROTO_IPV6 && h.Type == sockoptIPv6Pktinfo &&
			h.Len-wsaCmsgLen(0) >= unsafe.Sizeof(in6Pktinfo{}) {
			pi := (*in6Pktinfo)(unsafe.Pointer(&b[data]))
			local = api.IPv6IP(pi.Addr)
		}
		off += wsaCmsgAlign(h.Len)
	}
	return local
}

func (s *Socket) sendToFromPktinfo(p []byte, addr api.Addr, local api.IPAddr) (int, error) {
	fn, err := loadExtensionFn(s.sys.fd, wsaidWSASendMsg)
	if err != nil {
		return s.SendTo(p, addr)
	}

	raw, salen := addrToRaw(addr)
	buf := wsaBuf{Len: uint32(len(p)), Buf: sliceBase(p)}
	control := buildWsaPktinfo(local)

	var msg wsaMsg
	msg.Name = &raw
	msg.Namelen = salen
	msg.Buffers = &buf
	msg.BufferCount = 1
	if len(control) > 0 {
		msg.Control = wsaBuf{Len: uint32(len(control)), Buf: &control[0]}
	}

	var sent uint32
	r1, _, e1 := syscall.SyscallN(fn, uintptr(s.sys.fd), uintptr(unsafe.Pointer(&msg)), 0,
		uintptr(unsafe.Pointer(&sent)), 0, 0)
	if int32(r1) == socketError {
		return 0, s.fail(mapIOErrno(s.kind, errnoErr(e1)))
	}
	s.ok()
	s.metrics.Inc("socket.sends")
	return int(sent), nil
}

func (s *Socket) recvFromToPktinfo(p []byte, addr *api.Addr, local *api.IPAddr) (int, error) {
	fn, err := loadExtensionFn(s.sys.fd, wsaidWSARecvMsg)
	if err != nil {
		return s.recvFromToFallback(p, addr, local)
	}

	if s.limitRecv() {
		return 0, s.fail(api.ErrLater)
	}

	var raw windows.RawSockaddrAny
	buf := wsaBuf{Len: uint32(len(p)), Buf: sliceBase(p)}
	control := make([]byte, wsaCmsgSpace(unsafe.Sizeof(in6Pktinfo{})))

	var msg wsaMsg
	msg.Name = &raw
	msg.Namelen = int32(unsafe.Sizeof(raw))
	msg.Buffers = &buf
	msg.BufferCount = 1
	msg.Control = wsaBuf{Len: uint32(len(control)), Buf: &control[0]}

	var received uint32
	r1, _, e1 := syscall.SyscallN(fn, uintptr(s.sys.fd), uintptr(unsafe.Pointer(&msg)),
		uintptr(unsafe.Pointer(&received)), 0, 0)
	if int32(r1) == socketError {
		return 0, s.fail(mapIOErrno(s.kind, errnoErr(e1)))
	}

	a, errno := rawToAddr(&raw)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	if addr != nil {
		*addr = a
	}
	if local != nil {
		*local = parseWsaPktinfo(control[:msg.Control.Len])
	}
	s.ok()
	s.metrics.Inc("socket.recvs")
	return int(received), nil
}
