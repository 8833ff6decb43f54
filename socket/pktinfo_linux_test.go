//go:build linux
// +build linux

// File: socket/pktinfo_linux_test.go
// Author: momentics <momentics@gmail.com>

package socket

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sock/api"
)

// TestBuildPktinfoNone checks that no hint produces no control data.
func TestBuildPktinfoNone(t *testing.T) {
	if oob := buildPktinfoOob(api.NoIP()); len(oob) != 0 {
		t.Fatalf("expected empty control buffer, got %d bytes", len(oob))
	}
}

// TestBuildPktinfoIPv4Layout checks the control record against the
// kernel's own parser: one IP_PKTINFO record with the source hint in
// Spec_dst and correct CMSG length.
func TestBuildPktinfoIPv4Layout(t *testing.T) {
	src := [4]byte{192, 0, 2, 7}
	oob := buildPktinfoOob(api.IPv4IP(src))
	if len(oob) != unix.CmsgSpace(sizeofInet4Pktinfo) {
		t.Fatalf("control length %d, want CmsgSpace(%d)", len(oob), sizeofInet4Pktinfo)
	}
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(msgs))
	}
	h := msgs[0].Header
	if h.Level != unix.IPPROTO_IP || h.Type != unix.IP_PKTINFO {
		t.Fatalf("unexpected record %d/%d", h.Level, h.Type)
	}
	pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&msgs[0].Data[0]))
	if pi.Spec_dst != src {
		t.Errorf("source hint not stamped: %v", pi.Spec_dst)
	}
	if pi.Ifindex != 0 {
		t.Errorf("interface index must stay zero, got %d", pi.Ifindex)
	}
}

// TestBuildPktinfoIPv6RoundTrip checks that a built IPv6 record parses
// back to the same address (the IPv6 payload uses the same field in both
// directions).
func TestBuildPktinfoIPv6RoundTrip(t *testing.T) {
	ip := [16]byte{0x20, 0x01, 0x0d, 0xb8, 15: 0x42}
	local := parsePktinfoOob(buildPktinfoOob(api.IPv6IP(ip)))
	if local.Type != api.AddrIPv6 || local.IP6 != ip {
		t.Fatalf("round trip mismatch: %v", local)
	}
}

// TestParsePktinfoIgnoresForeignRecords checks that unrelated control
// records leave the local hint absent.
func TestParsePktinfoIgnoresForeignRecords(t *testing.T) {
	// A minimal SCM-style record at socket level.
	payload := 4
	b := make([]byte, unix.CmsgSpace(payload))
	h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
	h.Level = unix.SOL_SOCKET
	h.Type = unix.SCM_RIGHTS
	h.SetLen(unix.CmsgLen(payload))
	if local := parsePktinfoOob(b); local.Type != api.AddrNone {
		t.Fatalf("foreign record must be ignored, got %v", local)
	}
}

// TestParsePktinfoEmpty checks the no-control case.
func TestParsePktinfoEmpty(t *testing.T) {
	if local := parsePktinfoOob(nil); local.Type != api.AddrNone {
		t.Fatalf("expected absent local hint, got %v", local)
	}
}
