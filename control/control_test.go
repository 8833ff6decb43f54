// File: control/control_test.go
// Author: momentics <momentics@gmail.com>

package control

import "testing"

// TestConfigStoreIntOr checks typed reads with fallback defaults.
func TestConfigStoreIntOr(t *testing.T) {
	cs := NewConfigStore()
	if got := cs.IntOr(KeyDefaultRecvMax, 64); got != 64 {
		t.Fatalf("missing key must fall back: got %d", got)
	}
	cs.SetConfig(map[string]any{KeyDefaultRecvMax: 8})
	if got := cs.IntOr(KeyDefaultRecvMax, 64); got != 8 {
		t.Fatalf("stored key must win: got %d", got)
	}
	cs.SetConfig(map[string]any{KeyDefaultRecvMax: "bogus"})
	if got := cs.IntOr(KeyDefaultRecvMax, 64); got != 64 {
		t.Fatalf("non-integer value must fall back: got %d", got)
	}
}

// TestConfigStoreReload checks listener notification on updates.
func TestConfigStoreReload(t *testing.T) {
	cs := NewConfigStore()
	fired := 0
	cs.OnReload(func() { fired++ })
	cs.SetConfig(map[string]any{KeyDefaultBacklog: 16})
	cs.SetConfig(map[string]any{KeyDefaultBacklog: 32})
	if fired != 2 {
		t.Fatalf("expected 2 reload notifications, got %d", fired)
	}
	snap := cs.GetSnapshot()
	if snap[KeyDefaultBacklog] != 32 {
		t.Fatalf("snapshot out of date: %+v", snap)
	}
}

// TestMetricsCounters checks increment and snapshot behavior.
func TestMetricsCounters(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Inc("socket.sends")
	mr.Inc("socket.sends")
	mr.Add("socket.recvs", 3)
	if got := mr.Get("socket.sends"); got != 2 {
		t.Fatalf("expected 2 sends, got %d", got)
	}
	snap := mr.GetSnapshot()
	if snap["socket.recvs"] != 3 {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
	if mr.Get("unset") != 0 {
		t.Error("unset counters must read zero")
	}
}

// TestDebugProbes checks probe registration and state dump.
func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	state := dp.DumpState()
	if state["answer"] != 42 {
		t.Fatalf("probe not reflected: %+v", state)
	}
}
