// File: reactor/pending_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import "testing"

// TestPendingFIFO checks that jobs drain in submission order.
func TestPendingFIFO(t *testing.T) {
	p := newPendingQueue()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		p.push(func() { order = append(order, i) })
	}
	p.drain()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("unexpected drain order: %v", order)
	}
	if p.len() != 0 {
		t.Fatal("queue must be empty after drain")
	}
}

// TestPendingPushDuringDrain checks that jobs queued by a running job are
// executed in the same drain.
func TestPendingPushDuringDrain(t *testing.T) {
	p := newPendingQueue()
	var order []string
	p.push(func() {
		order = append(order, "first")
		p.push(func() { order = append(order, "nested") })
	})
	p.drain()
	if len(order) != 2 || order[1] != "nested" {
		t.Fatalf("nested job must run in the same drain: %v", order)
	}
}
