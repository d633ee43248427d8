// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spinMutex is a word-sized test-and-set lock.
// Critical sections under it are a handful of slice operations, so waiters
// spin rather than park.
type spinMutex struct {
	word atomix.Uint32
}

func (m *spinMutex) lock() {
	sw := spin.Wait{}
	for !m.word.CompareAndSwapAcqRel(0, 1) {
		sw.Once()
	}
}

func (m *spinMutex) unlock() {
	m.word.StoreRelease(0)
}

// heapEntry is one out-of-order speculative result held for the Ahead
// token. stream is the pre-evaluated remainder (head value consed back on),
// or nil when the sequence number retired without producing a value - the
// nil entry is what lets the token pass sequences whose producer yielded
// nothing.
type heapEntry[T any] struct {
	seq    uint64
	stream Stream[T]
}

// aheadHeap is the Ahead ordering heap: a min-heap keyed by sequence
// number. Sequence numbers are assigned exactly once at enqueue, and a
// number is re-inserted only by the worker that popped or dequeued it, so
// keys present at the same time are pairwise distinct.
type aheadHeap[T any] struct {
	mu    spinMutex
	items []heapEntry[T]
}

// insert adds an entry under seq. Ownership of stream moves to the heap;
// popAt moves it back out to the extracting worker.
func (h *aheadHeap[T]) insert(seq uint64, s Stream[T]) {
	h.mu.lock()
	h.items = append(h.items, heapEntry[T]{seq: seq, stream: s})
	h.siftUp(len(h.items) - 1)
	h.mu.unlock()
}

// popAt removes and returns the root entry if its key equals seq.
// The boolean reports whether the root matched; the returned stream is nil
// for an empty entry.
func (h *aheadHeap[T]) popAt(seq uint64) (Stream[T], bool) {
	h.mu.lock()
	if len(h.items) == 0 || h.items[0].seq != seq {
		h.mu.unlock()
		return nil, false
	}
	s := h.items[0].stream
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items[last] = heapEntry[T]{}
	h.items = h.items[:last]
	h.siftDown(0)
	h.mu.unlock()
	return s, true
}

// headSeq returns the smallest key in the heap.
func (h *aheadHeap[T]) headSeq() (uint64, bool) {
	h.mu.lock()
	if len(h.items) == 0 {
		h.mu.unlock()
		return 0, false
	}
	seq := h.items[0].seq
	h.mu.unlock()
	return seq, true
}

func (h *aheadHeap[T]) empty() bool {
	h.mu.lock()
	n := len(h.items)
	h.mu.unlock()
	return n == 0
}

func (h *aheadHeap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].seq <= h.items[i].seq {
			return
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *aheadHeap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		least := i
		if l := 2*i + 1; l < n && h.items[l].seq < h.items[least].seq {
			least = l
		}
		if r := 2*i + 2; r < n && h.items[r].seq < h.items[least].seq {
			least = r
		}
		if least == i {
			return
		}
		h.items[i], h.items[least] = h.items[least], h.items[i]
		i = least
	}
}
