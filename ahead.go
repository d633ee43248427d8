// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/iox"
)

// The Ahead evaluator runs producers speculatively on workers yet delivers
// values in strict enqueue order. The worker whose sequence number equals
// nextSeq holds the token and is the only one publishing to the output
// channel; everyone else evaluates at most one head step and parks the
// result on the ordering heap under its sequence number.
//
// nextSeq advances only when its holder retires the sequence, so values
// reach the buffer in strictly ascending order. A sequence that produces
// no values still retires through a nil heap entry; without it the token
// could never pass a producer that a filter upstream emptied out.

// aheadLoop is the Ahead worker body.
func (sv *SVar[T]) aheadLoop(id uint32, yields *int64) error {
	for {
		if sv.stopping() {
			return nil
		}

		// Token work held on the heap comes first: publish consecutive
		// entries until the head runs past nextSeq.
		ns := sv.nextSeq.LoadAcquire()
		if s, ok := sv.heap.popAt(ns); ok {
			if s == nil {
				sv.nextSeq.Add(1)
				continue
			}
			cont, err := sv.aheadToken(id, ns, s, yields)
			if err != nil || !cont {
				return err
			}
			continue
		}

		it, ok := sv.dequeueWork()
		if !ok {
			return nil
		}
		if it.driver != nil {
			it.driver()
		} else if it.seq == sv.nextSeq.LoadAcquire() {
			cont, err := sv.aheadToken(id, it.seq, it.stream, yields)
			if err != nil || !cont {
				return err
			}
		} else if err := sv.speculate(it); err != nil {
			return err
		}

		if !sv.continueWork() {
			return nil
		}
	}
}

// speculate makes bounded progress on an out-of-order item: one head step,
// parked on the heap. Bounding non-token workers to a single step keeps
// them from running away from the token holder.
func (sv *SVar[T]) speculate(it workItem[T]) error {
	st := it.stream()
	switch st.Tag {
	case TagYield:
		sv.heap.insert(it.seq, Cons(st.Value, st.Next))
	case TagSingle:
		sv.heap.insert(it.seq, singleStream(st.Value))
	default:
		// retire the sequence with no values so the token can pass it
		sv.heap.insert(it.seq, nil)
		if st.Err != nil {
			return st.Err
		}
	}
	return nil
}

// aheadToken streams an in-order producer straight into the output
// channel. On completion it advances the token and reports cont=true so
// the caller can immediately look for follow-on heap work. When the
// buffer refuses (do-not-continue) the remainder goes back on the heap
// under the current sequence and the worker stops; the consumer-side
// dispatch restarts the work after draining.
func (sv *SVar[T]) aheadToken(id uint32, seq uint64, s Stream[T], yields *int64) (cont bool, err error) {
	for {
		if sv.stopping() {
			return false, nil
		}
		st := s()
		switch st.Tag {
		case TagYield, TagSingle:
			switch sv.emitAhead(id, st.Value, yields) {
			case iox.ErrWouldBlock:
				if st.Tag == TagSingle {
					sv.heap.insert(seq, singleStream(st.Value))
				} else {
					sv.heap.insert(seq, Cons(st.Value, st.Next))
				}
				return false, nil
			case ErrStopped:
				return false, nil
			}
			if st.Tag == TagSingle {
				sv.nextSeq.Add(1)
				return true, nil
			}
			s = st.Next
		default:
			sv.nextSeq.Add(1)
			return st.Err == nil, st.Err
		}
	}
}

// emitAhead delivers one in-order value. Unlike the arrival-order styles
// the token holder never waits on a full buffer here; the caller re-parks
// the remainder instead.
func (sv *SVar[T]) emitAhead(id uint32, v T, yields *int64) error {
	if sv.stopping() {
		return ErrStopped
	}
	if !sv.claimYield() {
		return ErrStopped
	}
	sv.pace()
	c := cell[T]{value: v, worker: id}
	if err := sv.pushCell(&c); err != nil {
		sv.refundYield()
		return err
	}
	*yields++
	return nil
}
