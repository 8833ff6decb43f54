// File: reactor/pending.go
// Author: momentics <momentics@gmail.com>
//
// Deferred dispatch queue. Callbacks fired by a poll sweep are collected
// here and drained after the OS-level sweep finishes, so a callback that
// reprograms the loop never observes its change mid-sweep.

package reactor

import "github.com/eapache/queue"

type pendingQueue struct {
	q *queue.Queue
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{q: queue.New()}
}

func (p *pendingQueue) push(job func()) {
	p.q.Add(job)
}

// drain runs queued jobs in FIFO order. Jobs pushed while draining run in
// the same drain.
func (p *pendingQueue) drain() {
	for p.q.Length() > 0 {
		job := p.q.Remove().(func())
		job()
	}
}

func (p *pendingQueue) len() int {
	return p.q.Length()
}
