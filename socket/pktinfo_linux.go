//go:build linux
// +build linux

// File: socket/pktinfo_linux.go
// Author: momentics <momentics@gmail.com>
//
// Datagram ancillary engine. Builds and parses IP_PKTINFO/IPV6_PKTINFO
// control messages for per-packet source selection and destination
// reporting. Buffers are laid out with the kernel's CMSG alignment via
// unix.CmsgSpace/CmsgLen; the outgoing IPv4 source goes into Spec_dst,
// the incoming IPv4 destination arrives in Addr.

package socket

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
)

var (
	sizeofInet4Pktinfo = int(unsafe.Sizeof(unix.Inet4Pktinfo{}))
	sizeofInet6Pktinfo = int(unsafe.Sizeof(unix.Inet6Pktinfo{}))
)

// buildPktinfoOob produces the control buffer for one outgoing datagram:
// empty for IPNone, otherwise exactly one packet-info record keyed by the
// address family of local. The interface index is left zero so the kernel
// routes by address alone.
func buildPktinfoOob(local api.IPAddr) []byte {
	switch local.Type {
	case api.AddrIPv4:
		b := make([]byte, unix.CmsgSpace(sizeofInet4Pktinfo))
		h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
		h.Level = unix.IPPROTO_IP
		h.Type = unix.IP_PKTINFO
		h.SetLen(unix.CmsgLen(sizeofInet4Pktinfo))
		pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&b[unix.CmsgLen(0)]))
		pi.Spec_dst = local.IP4
		return b
	case api.AddrIPv6:
		b := make([]byte, unix.CmsgSpace(sizeofInet6Pktinfo))
		h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
		h.Level = unix.IPPROTO_IPV6
		h.Type = unix.IPV6_PKTINFO
		h.SetLen(unix.CmsgLen(sizeofInet6Pktinfo))
		pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&b[unix.CmsgLen(0)]))
		pi.Addr = local.IP6
		return b
	default:
		return nil
	}
}

// parsePktinfoOob extracts the local destination IP from received control
// records. Records other than packet info are ignored; with no matching
// record the result is IPNone.
func parsePktinfoOob(oob []byte) api.IPAddr {
	local := api.NoIP()
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return local
	}
	for _, m := range msgs {
		if m.Header.Level == unix.IPPROTO_IP && m.Header.Type == unix.IP_PKTINFO && len(m.Data) >= sizeofInet4Pktinfo {
			pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&m.Data[0]))
			local = api.IPv4IP(pi.Addr)
		} else if m.Header.Level == unix.IPPROTO_IPV6 && m.Header.Type == unix.IPV6_PKTINFO && len(m.Data) >= sizeofInet6Pktinfo {
			pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&m.Data[0]))
			local = api.IPv6IP(pi.Addr)
		}
	}
	return local
}

func (s *Socket) sendToFromPktinfo(p []byte, addr api.Addr, local api.IPAddr) (int, error) {
	oob := buildPktinfoOob(local)
	n, err := unix.SendmsgN(s.sys.fd, p, oob, addrToSockaddr(addr), unix.MSG_NOSIGNAL)
	if err != nil {
		return 0, s.fail(mapIOErrno(s.kind, err))
	}
	s.ok()
	s.metrics.Inc("socket.sends")
	return n, nil
}

func (s *Socket) recvFromToPktinfo(p []byte, addr *api.Addr, local *api.IPAddr) (int, error) {
	if s.limitRecv() {
		return 0, s.fail(api.ErrLater)
	}
	oob := make([]byte, unix.CmsgSpace(sizeofInet6Pktinfo))
	n, oobn, _, from, err := unix.Recvmsg(s.sys.fd, p, oob, 0)
	if err != nil {
		return 0, s.fail(mapIOErrno(s.kind, err))
	}
	a, errno := sockaddrToAddr(from)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	if addr != nil {
		*addr = a
	}
	if local != nil {
		*local = parsePktinfoOob(oob[:oobn])
	}
	s.ok()
	s.metrics.Inc("socket.recvs")
	return n, nil
}
