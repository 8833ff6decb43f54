// File: api/addr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable socket address value types. Addr carries an IP endpoint with a
// port; IPAddr carries a bare IP used to request or report a local address
// without a port (packet-info selection on datagram sockets).

package api

import "fmt"

// AddrType discriminates the Addr/IPAddr union.
type AddrType int

const (
	AddrNone AddrType = iota
	AddrIPv4
	AddrIPv6
)

func (t AddrType) String() string {
	switch t {
	case AddrIPv4:
		return "ipv4"
	case AddrIPv6:
		return "ipv6"
	default:
		return "none"
	}
}

// Addr is a portable IP endpoint. Exactly one of the address arrays is
// meaningful, selected by Type. The port is held in host order; the
// syscall boundary performs the network-order swap.
type Addr struct {
	Type AddrType
	IP4  [4]byte
	IP6  [16]byte
	Port uint16
}

// IPv4Addr builds an IPv4 endpoint address.
func IPv4Addr(ip [4]byte, port uint16) Addr {
	return Addr{Type: AddrIPv4, IP4: ip, Port: port}
}

// IPv6Addr builds an IPv6 endpoint address. Scope and flow information are
// not represented; they are sent as zero and ignored on receive.
func IPv6Addr(ip [16]byte, port uint16) Addr {
	return Addr{Type: AddrIPv6, IP6: ip, Port: port}
}

// Equal reports whether two addresses are the same endpoint.
func (a Addr) Equal(b Addr) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case AddrIPv4:
		return a.IP4 == b.IP4 && a.Port == b.Port
	case AddrIPv6:
		return a.IP6 == b.IP6 && a.Port == b.Port
	default:
		return true
	}
}

func (a Addr) String() string {
	switch a.Type {
	case AddrIPv4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP4[0], a.IP4[1], a.IP4[2], a.IP4[3], a.Port)
	case AddrIPv6:
		return fmt.Sprintf("[%x]:%d", a.IP6, a.Port)
	default:
		return "<none>"
	}
}

// IPAddr is a bare IP address, or no address at all.
type IPAddr struct {
	Type AddrType
	IP4  [4]byte
	IP6  [16]byte
}

// NoIP returns the absent IPAddr.
func NoIP() IPAddr {
	return IPAddr{Type: AddrNone}
}

// IPv4IP builds an IPv4 IPAddr.
func IPv4IP(ip [4]byte) IPAddr {
	return IPAddr{Type: AddrIPv4, IP4: ip}
}

// IPv6IP builds an IPv6 IPAddr.
func IPv6IP(ip [16]byte) IPAddr {
	return IPAddr{Type: AddrIPv6, IP6: ip}
}

// Equal reports whether two IPAddr values carry the same address.
func (a IPAddr) Equal(b IPAddr) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case AddrIPv4:
		return a.IP4 == b.IP4
	case AddrIPv6:
		return a.IP6 == b.IP6
	default:
		return true
	}
}

func (a IPAddr) String() string {
	switch a.Type {
	case AddrIPv4:
		return fmt.Sprintf("%d.%d.%d.%d", a.IP4[0], a.IP4[1], a.IP4[2], a.IP4[3])
	case AddrIPv6:
		return fmt.Sprintf("%x", a.IP6)
	default:
		return "<none>"
	}
}
