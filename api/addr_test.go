// File: api/addr_test.go
// Author: momentics <momentics@gmail.com>

package api

import "testing"

// TestAddrEqual checks endpoint comparison across families.
func TestAddrEqual(t *testing.T) {
	a := IPv4Addr([4]byte{127, 0, 0, 1}, 4000)
	b := IPv4Addr([4]byte{127, 0, 0, 1}, 4000)
	if !a.Equal(b) {
		t.Fatal("identical IPv4 endpoints must compare equal")
	}
	if a.Equal(IPv4Addr([4]byte{127, 0, 0, 1}, 4001)) {
		t.Error("different ports must not compare equal")
	}
	if a.Equal(IPv6Addr([16]byte{}, 4000)) {
		t.Error("different families must not compare equal")
	}

	v6 := IPv6Addr([16]byte{0xfe, 0x80, 15: 0x01}, 53)
	if !v6.Equal(IPv6Addr([16]byte{0xfe, 0x80, 15: 0x01}, 53)) {
		t.Error("identical IPv6 endpoints must compare equal")
	}
}

// TestAddrString checks the printable forms.
func TestAddrString(t *testing.T) {
	a := IPv4Addr([4]byte{10, 1, 2, 3}, 80)
	if got := a.String(); got != "10.1.2.3:80" {
		t.Errorf("unexpected IPv4 form: %q", got)
	}
	if got := (Addr{}).String(); got != "<none>" {
		t.Errorf("unexpected zero form: %q", got)
	}
}

// TestIPAddrConstructors checks the local-hint helpers.
func TestIPAddrConstructors(t *testing.T) {
	if NoIP().Type != AddrNone {
		t.Fatal("NoIP must carry no address")
	}
	ip := IPv4IP([4]byte{192, 168, 0, 1})
	if ip.Type != AddrIPv4 || ip.IP4 != [4]byte{192, 168, 0, 1} {
		t.Fatalf("unexpected IPv4 hint: %+v", ip)
	}
	if !NoIP().Equal(NoIP()) {
		t.Error("absent addresses must compare equal")
	}
	if ip.Equal(NoIP()) {
		t.Error("present and absent addresses must not compare equal")
	}
}

// TestErrnoTemporary checks that only the retry signals read as temporary.
func TestErrnoTemporary(t *testing.T) {
	if !ErrLater.Temporary() || !ErrInProgress.Temporary() {
		t.Error("ErrLater and ErrInProgress are retry signals")
	}
	if ErrConnectionRefused.Temporary() || ErrUnknown.Temporary() {
		t.Error("terminal errors must not read as temporary")
	}
	if ErrNone.Error() == "" || ErrUnknown.Error() == "" {
		t.Error("error strings must be non-empty")
	}
}
