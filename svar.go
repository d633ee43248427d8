// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// SerialNo is a monotonically increasing SVar identifier.
// Each call to NewSVar assigns the next serial value.
type SerialNo = uint32

// counter is the global monotonic counter for SVar serials.
var counter atomix.Uint32

func nextSerial() SerialNo {
	return counter.Add(1)
}

// SVar is the per-stream scheduling object: it ties together the output
// channel, the style-specific work queue, the Ahead ordering heap, the
// worker pool and its admission limits, and shutdown/failure state.
//
// Producers enter through Push (or a combinator); the single consumer
// drains through Pull. Every field shared between workers and the consumer
// is an atomic or sits behind the heap spinlock. The only package-level
// state is the serial counter behind Serial.
type SVar[T any] struct {
	style  Style
	lim    limits
	serial SerialNo

	out  *outbuf[T]
	q    *workQueue[T]
	heap *aheadHeap[T]

	// Ahead sequencing. nextSeq is the sequence number holding the token;
	// seqAlloc assigns numbers at enqueue.
	nextSeq  atomix.Uint64
	seqAlloc atomix.Uint64

	// pending counts queued work items; workers decrement on dequeue.
	pending atomix.Int64

	workers   atomix.Int64
	workerIDs atomix.Uint32

	// budget is the remaining yield allowance when lim.yieldCap >= 0.
	// Claims drive it below zero; refused claims are not restored.
	budget atomix.Int64

	stopped atomix.Uint32

	// pending_failure is write-once: state 0 none, 1 writing, 2 set.
	failState atomix.Uint32
	failErr   error

	// pacing
	start   time.Time
	paced   atomix.Int64
	latency atomix.Int64 // EWMA ns per yield
}

// NewSVar creates a scheduling object for one of the concurrent styles.
// Serial and WSerial are rejected with ErrSerialStyle; an invalid rate is
// rejected with ErrBadRate.
func NewSVar[T any](style Style, cfg Config) (*SVar[T], error) {
	if !style.concurrent() {
		return nil, ErrSerialStyle
	}
	lim, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	sv := &SVar[T]{
		style:  style,
		lim:    lim,
		serial: nextSerial(),
		out:    newOutbuf[T](lim.bufferCap),
		q:      newWorkQueue[T](style.lifo()),
		start:  time.Now(),
	}
	if style == Ahead {
		sv.heap = &aheadHeap[T]{}
	}
	if lim.yieldCap >= 0 {
		sv.budget.Add(lim.yieldCap)
	}
	sv.latency.StoreRelaxed(int64(lim.latency))
	return sv, nil
}

// Serial returns the serial number assigned to this SVar.
func (sv *SVar[T]) Serial() SerialNo {
	return sv.serial
}

// Live returns the current number of live workers.
func (sv *SVar[T]) Live() int {
	return int(sv.workers.LoadAcquire())
}

// Push submits a producer onto the work queue and dispatches workers.
// It never blocks on buffer space; backpressure reaches the producer
// through the push signal its worker observes.
func (sv *SVar[T]) Push(s Stream[T]) {
	sv.enqueueWork(workItem[T]{stream: s})
	sv.dispatch()
}

// Stop marks the SVar stopped on behalf of a consumer that abandons the
// stream. Workers observe the flag at their next admission or push and
// exit; no further values are admitted to the buffer.
func (sv *SVar[T]) Stop() {
	sv.stopped.StoreRelease(1)
}

// enqueueWork assigns an Ahead sequence number (drivers carry none, so the
// token never waits on them) and queues the item.
func (sv *SVar[T]) enqueueWork(it workItem[T]) {
	if sv.style == Ahead && it.driver == nil {
		it.seq = sv.seqAlloc.Add(1) - 1
	}
	sv.pending.Add(1)
	sv.q.enqueue(it)
}

func (sv *SVar[T]) dequeueWork() (workItem[T], bool) {
	it, ok := sv.q.dequeue()
	if ok {
		sv.pending.Add(-1)
	}
	return it, ok
}

// stopping reports whether no further yields may be admitted.
func (sv *SVar[T]) stopping() bool {
	return sv.stopped.LoadAcquire() != 0 || sv.failState.LoadAcquire() != 0
}

// setFailure records the first producer failure. Write-once; later
// failures are dropped (at most one failure reaches the consumer).
func (sv *SVar[T]) setFailure(err error) {
	if err == nil {
		return
	}
	if sv.failState.CompareAndSwapAcqRel(0, 1) {
		sv.failErr = err
		sv.failState.StoreRelease(2)
	}
}

// failure returns the recorded failure once fully published.
func (sv *SVar[T]) failure() error {
	sw := spin.Wait{}
	for {
		switch sv.failState.LoadAcquire() {
		case 0:
			return nil
		case 2:
			return sv.failErr
		}
		// state 1: the failing worker is mid-publish
		sw.Once()
	}
}

// claimYield takes one unit of the yield budget.
func (sv *SVar[T]) claimYield() bool {
	if sv.lim.yieldCap < 0 {
		return true
	}
	return sv.budget.Add(-1) >= 0
}

// refundYield returns a claimed unit that was not delivered.
func (sv *SVar[T]) refundYield() {
	if sv.lim.yieldCap >= 0 {
		sv.budget.Add(1)
	}
}

// pushCell delivers one yield cell to the output channel.
// Bounded mode claims the buffered-yield count first and signals
// do-not-continue with iox.ErrWouldBlock at the cap. Unbounded mode always
// admits and waits for ring space (transport flow control only).
func (sv *SVar[T]) pushCell(c *cell[T]) error {
	if sv.lim.bufferCap >= 0 {
		if n := sv.out.count.Add(1); n > int64(sv.lim.bufferCap) {
			sv.out.count.Add(-1)
			return iox.ErrWouldBlock
		}
	} else {
		sv.out.count.Add(1)
	}
	var bo iox.Backoff
	for sv.out.ring.Enqueue(c) != nil {
		if sv.stopped.LoadAcquire() != 0 {
			sv.out.count.Add(-1)
			return ErrStopped
		}
		bo.Wait()
	}
	return nil
}

// pushStop reports a worker exit, with its failure if any.
// Stop cells bypass the yield count; the puller always drains, so ring
// space appears.
func (sv *SVar[T]) pushStop(id uint32, err error) {
	c := cell[T]{worker: id, err: err, stop: true}
	var bo iox.Backoff
	for sv.out.ring.Enqueue(&c) != nil {
		if sv.stopped.LoadAcquire() != 0 {
			// consumer gone, nobody reads the report
			return
		}
		bo.Wait()
	}
}
