// freelist.go: concurrent free list and blocking waker
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"sync"
	"sync/atomic"
)

// freeList is a multi-producer/multi-consumer collection of idle
// Buffers. Push and TryPop are both lock-free and wait-free, implemented
// as a Treiber stack (CAS-loop over an atomic head pointer), the same
// pattern the teacher's ringBuffer.push/pop uses for its MPSC queue.
// Order among concurrent operations is not FIFO, which spec.md §4.2
// explicitly allows ("need not be strict FIFO").
type freeList struct {
	head atomic.Pointer[flNode]
	size atomic.Int64
}

type flNode struct {
	buf  *Buffer
	next *flNode
}

func newFreeList() *freeList {
	return &freeList{}
}

// Push adds buf to the free list.
func (fl *freeList) Push(buf *Buffer) {
	n := &flNode{buf: buf}
	for {
		head := fl.head.Load()
		n.next = head
		if fl.head.CompareAndSwap(head, n) {
			fl.size.Add(1)
			return
		}
	}
}

// TryPop removes and returns a buffer, or (nil, false) if empty.
func (fl *freeList) TryPop() (*Buffer, bool) {
	for {
		head := fl.head.Load()
		if head == nil {
			return nil, false
		}
		if fl.head.CompareAndSwap(head, head.next) {
			fl.size.Add(-1)
			return head.buf, true
		}
	}
}

// Len returns the current number of idle buffers. Advisory under
// concurrent mutation, exact at any point of quiescence.
func (fl *freeList) Len() int {
	n := fl.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Drain removes and returns every buffer currently on the list, in
// arbitrary order, leaving it empty. Used by flush, which needs to hand
// each surviving buffer to the allocator's free hook exactly once.
func (fl *freeList) Drain() []*Buffer {
	var out []*Buffer
	for {
		buf, ok := fl.TryPop()
		if !ok {
			return out
		}
		out = append(out, buf)
	}
}

// waker is a counting wake primitive: signal() increments the credit
// count and wakes at most one waiter, consume() decrements it, and
// wait() blocks until credits are positive without itself consuming one
// (consumption happens separately, after a successful pop — see
// spec.md §4.2's invariant bridge).
//
// Modeled on tphakala-birdnet-go's BatchScheduler (mutex + sync.Cond,
// Signal on state change, Wait in a loop) rather than the teacher's
// atomics-only style: a genuine blocking wait with wakeup needs a
// condition variable, not a CAS spin loop.
type waker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	credits int64
}

func newWaker() *waker {
	w := &waker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// signal increments the credit count and wakes one waiter.
func (w *waker) signal() {
	w.mu.Lock()
	w.credits++
	w.mu.Unlock()
	w.cond.Signal()
}

// consume decrements the credit count. Must be called exactly once per
// successful pop to keep credits synchronized with free list contents.
func (w *waker) consume() {
	w.mu.Lock()
	if w.credits > 0 {
		w.credits--
	}
	w.mu.Unlock()
}

// wait blocks until credits are positive or stop returns true. It does
// not consume a credit. stop is polled after each wakeup so callers can
// interleave an additional condition (e.g. "pool stopped flushing") with
// the credit check; pass a func that always returns false for an
// unconditional wait.
func (w *waker) wait(stop func() bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.credits <= 0 && !stop() {
		w.cond.Wait()
	}
}

// broadcast wakes every waiter regardless of credit count, used when the
// pool transitions to flushing so all blocked acquirers re-check state.
func (w *waker) broadcast() {
	// Taking mu orders the broadcast after any waiter that has checked
	// its condition but not yet parked, so no waiter misses it.
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
