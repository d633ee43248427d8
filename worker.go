// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"fmt"
	"time"

	"code.hybscloud.com/iox"
)

// canWork reports whether a worker spawned now would find something to do:
// a queued item, or a heap entry the token can publish.
func (sv *SVar[T]) canWork() bool {
	if sv.pending.LoadAcquire() > 0 {
		return true
	}
	if sv.heap == nil {
		return false
	}
	head, ok := sv.heap.headSeq()
	return ok && head == sv.nextSeq.LoadAcquire()
}

// rateGate limits the worker count so that the expected yield rate,
// |workers| / measured_latency, stays at or below the target.
func (sv *SVar[T]) rateGate(live int64) bool {
	if sv.lim.rate == 0 {
		return true
	}
	lat := time.Duration(sv.latency.LoadRelaxed())
	if lat <= 0 {
		lat = sv.lim.latency
	}
	limit := int64(sv.lim.rate * lat.Seconds())
	if limit < 1 {
		limit = 1
	}
	return live < limit
}

// dispatch spawns workers until the queued work is covered or an admission
// limit refuses. Called after Push, combinator and bind-driver enqueues,
// from exiting workers, and from the consumer when a drain finds the
// buffer empty. Concurrent dispatchers may race a
// slot claim; claims over the thread cap are backed out, so invariant
// |workers| <= thread_cap holds at every point.
func (sv *SVar[T]) dispatch() {
	for {
		if sv.stopping() {
			return
		}
		if sv.lim.yieldCap >= 0 && sv.budget.LoadAcquire() <= 0 {
			return
		}
		if sv.lim.bufferCap >= 0 && sv.out.count.LoadAcquire() >= int64(sv.lim.bufferCap) {
			return
		}
		need := sv.pending.LoadAcquire()
		if sv.heap != nil {
			if head, ok := sv.heap.headSeq(); ok && head == sv.nextSeq.LoadAcquire() {
				need++
			}
		}
		live := sv.workers.LoadAcquire()
		if need <= live {
			return
		}
		if !sv.rateGate(live) {
			return
		}
		n := sv.workers.Add(1)
		if sv.lim.threadCap >= 0 && n > int64(sv.lim.threadCap) {
			sv.workers.Add(-1)
			return
		}
		go sv.work(sv.workerIDs.Add(1))
	}
}

// work is a worker body: drain work under the style's discipline, then
// report the exit. A panicking producer is converted into the worker's
// failure report.
func (sv *SVar[T]) work(id uint32) {
	start := time.Now()
	var yields int64
	var failure error
	defer func() {
		if r := recover(); r != nil {
			failure = recoveredError(r)
		}
		if failure != nil {
			sv.setFailure(failure)
		}
		sv.pushStop(id, failure)
		sv.updateLatency(start, yields)
		sv.workers.Add(-1)
		sv.dispatch()
	}()
	switch sv.style {
	case Ahead:
		failure = sv.aheadLoop(id, &yields)
	case WAsync:
		failure = sv.interleaveLoop(id, &yields)
	default:
		failure = sv.drainLoop(id, &yields)
	}
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("strm: producer panic: %v", r)
}

// continueWork is the between-items admission check: a worker keeps going
// only while yields are still wanted, buffered output is below cap, and
// the pacer admits its slot.
func (sv *SVar[T]) continueWork() bool {
	if sv.stopping() {
		return false
	}
	if sv.lim.yieldCap >= 0 && sv.budget.LoadAcquire() <= 0 {
		return false
	}
	if sv.lim.bufferCap >= 0 && sv.out.count.LoadAcquire() >= int64(sv.lim.bufferCap) {
		return false
	}
	return sv.rateGate(sv.workers.LoadAcquire() - 1)
}

// drainLoop is the worker loop for Async and Parallel: take an item, run
// it to completion, repeat. Parallel skips the between-items admission
// check - its workers run items back to back so that a capped pool still
// consumes the whole queue (the queue stands in for eager spawning beyond
// the thread cap).
func (sv *SVar[T]) drainLoop(id uint32, yields *int64) error {
	for {
		if sv.stopping() {
			return nil
		}
		it, ok := sv.dequeueWork()
		if !ok {
			return nil
		}
		if it.driver != nil {
			it.driver()
		} else if err := sv.runStream(id, it.stream, yields); err != nil {
			return err
		}
		if sv.style != Parallel && !sv.continueWork() {
			return nil
		}
	}
}

// interleaveLoop is the WAsync worker loop: breadth-first, one element at
// a time. Each round dequeues a branch, delivers a single value, and
// re-enqueues the remainder at the back of the FIFO, so top-level branches
// are visited round-robin - the concurrent counterpart of the in-line
// interleaveStream.
func (sv *SVar[T]) interleaveLoop(id uint32, yields *int64) error {
	for {
		if sv.stopping() {
			return nil
		}
		it, ok := sv.dequeueWork()
		if !ok {
			return nil
		}
		if it.driver != nil {
			it.driver()
		} else {
			st := it.stream()
			switch st.Tag {
			case TagYield:
				if !sv.emit(id, st.Value, yields) {
					return nil
				}
				sv.enqueueWork(workItem[T]{stream: st.Next})
			case TagSingle:
				if !sv.emit(id, st.Value, yields) {
					return nil
				}
			default:
				if st.Err != nil {
					return st.Err
				}
			}
		}
		if !sv.continueWork() {
			return nil
		}
	}
}

// runStream evaluates one producer to completion, delivering every yield.
func (sv *SVar[T]) runStream(id uint32, s Stream[T], yields *int64) error {
	for {
		if sv.stopping() {
			return nil
		}
		st := s()
		switch st.Tag {
		case TagYield, TagSingle:
			if !sv.emit(id, st.Value, yields) {
				return nil
			}
			if st.Tag == TagSingle {
				return nil
			}
			s = st.Next
		default:
			return st.Err
		}
	}
}

// emit claims budget, paces, and delivers one value, waiting out a full
// buffer. Returns false when the value was not delivered (budget refused
// or the SVar is stopping); the worker abandons the rest of its item.
func (sv *SVar[T]) emit(id uint32, v T, yields *int64) bool {
	if sv.stopping() {
		return false
	}
	if !sv.claimYield() {
		return false
	}
	sv.pace()
	c := cell[T]{value: v, worker: id}
	var bo iox.Backoff
	for {
		err := sv.pushCell(&c)
		if err == nil {
			*yields++
			return true
		}
		if sv.stopping() {
			sv.refundYield()
			return false
		}
		bo.Wait()
	}
}

// pace sleeps the n-th yield until its slot under the rate target.
func (sv *SVar[T]) pace() {
	if sv.lim.rate == 0 {
		return
	}
	n := sv.paced.Add(1)
	due := time.Duration(float64(n-1) / sv.lim.rate * float64(time.Second))
	if d := due - time.Since(sv.start); d > 0 {
		time.Sleep(d)
	}
}

// updateLatency folds a finished worker's observed wall-clock per yield
// into the rolling estimate. The estimate steers dispatch only, so a racy
// read-modify-write is tolerated.
func (sv *SVar[T]) updateLatency(start time.Time, yields int64) {
	if yields <= 0 {
		return
	}
	obs := int64(time.Since(start)) / yields
	old := sv.latency.LoadRelaxed()
	sv.latency.StoreRelaxed(old + (obs-old)/8)
}
