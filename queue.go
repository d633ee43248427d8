// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"sync/atomic"
)

// workItem is one pending producer continuation.
// Exactly one of stream and driver is set: driver marks a bind driver that
// feeds further items onto the same SVar and yields nothing itself.
// seq is meaningful only under Ahead, where it is assigned at enqueue.
type workItem[T any] struct {
	stream Stream[T]
	driver func()
	seq    uint64
}

type workNode[T any] struct {
	item workItem[T]
	next atomic.Pointer[workNode[T]]
}

// workQueue is the style-specific queue of pending continuations.
// Async drains newest-first (Treiber stack); the other styles drain
// oldest-first (linked FIFO, Michael-Scott discipline). Both are unbounded:
// enqueue never blocks, which is what lets push_stream and bind drivers
// make progress regardless of queue depth. Multi-producer multi-consumer.
type workQueue[T any] struct {
	lifo bool

	// LIFO state
	top atomic.Pointer[workNode[T]]

	// FIFO state: head points at a dummy node whose next is the front.
	head atomic.Pointer[workNode[T]]
	tail atomic.Pointer[workNode[T]]
}

func newWorkQueue[T any](lifo bool) *workQueue[T] {
	q := &workQueue[T]{lifo: lifo}
	if !lifo {
		dummy := &workNode[T]{}
		q.head.Store(dummy)
		q.tail.Store(dummy)
	}
	return q
}

func (q *workQueue[T]) enqueue(it workItem[T]) {
	n := &workNode[T]{item: it}
	if q.lifo {
		for {
			t := q.top.Load()
			n.next.Store(t)
			if q.top.CompareAndSwap(t, n) {
				return
			}
		}
	}
	for {
		t := q.tail.Load()
		if t.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(t, n)
			return
		}
		q.tail.CompareAndSwap(t, t.next.Load())
	}
}

func (q *workQueue[T]) dequeue() (workItem[T], bool) {
	var zero workItem[T]
	if q.lifo {
		for {
			t := q.top.Load()
			if t == nil {
				return zero, false
			}
			if q.top.CompareAndSwap(t, t.next.Load()) {
				return t.item, true
			}
		}
	}
	for {
		h := q.head.Load()
		front := h.next.Load()
		if front == nil {
			return zero, false
		}
		if q.head.CompareAndSwap(h, front) {
			it := front.item
			front.item = zero
			return it, true
		}
	}
}

func (q *workQueue[T]) empty() bool {
	if q.lifo {
		return q.top.Load() == nil
	}
	return q.head.Load().next.Load() == nil
}
