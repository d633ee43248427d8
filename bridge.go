// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/iox"
)

// puller bridges an SVar back to a plain sequential stream. It drains the
// output channel a batch at a time and serves cells one step each. It is
// the single consumer: once it observes zero workers it is also the only
// dispatcher, which is what makes the quiesce check stable.
type puller[T any] struct {
	sv    *SVar[T]
	batch []cell[T]
	pos   int
}

// Pull returns the sequential stream draining this SVar.
// There must be exactly one puller per SVar.
func (sv *SVar[T]) Pull() Stream[T] {
	p := &puller[T]{sv: sv}
	return p.step
}

func (p *puller[T]) step() Step[T] {
	sv := p.sv
	var bo iox.Backoff
	for {
		// serve the current batch first
		for p.pos < len(p.batch) {
			c := p.batch[p.pos]
			p.pos++
			if c.stop {
				// worker exit report; its failure surfaces once the
				// batch that carried it is exhausted
				continue
			}
			return Step[T]{Value: c.value, Next: p.step, Tag: TagYield}
		}
		p.batch = p.batch[:0]
		p.pos = 0

		p.batch = sv.out.drain(p.batch)
		if len(p.batch) > 0 {
			bo.Reset()
			continue
		}

		// failure recorded: a final drain picks up values the failing
		// worker pushed before recording it; once that drain is empty
		// everything admitted ahead of the failure has been delivered
		if err := sv.failure(); err != nil {
			p.batch = sv.out.drain(p.batch)
			if len(p.batch) > 0 {
				bo.Reset()
				continue
			}
			sv.Stop()
			return Step[T]{Tag: TagStop, Err: err}
		}
		if sv.stopped.LoadAcquire() != 0 {
			return Step[T]{Tag: TagStop}
		}

		// yield budget spent: parked work can never be admitted again, so
		// once the last worker is gone and a final drain is empty the
		// stream is complete even if queue or heap still hold items
		if sv.lim.yieldCap >= 0 &&
			sv.budget.LoadAcquire() <= 0 &&
			sv.workers.LoadAcquire() == 0 {
			p.batch = sv.out.drain(p.batch)
			if len(p.batch) > 0 {
				bo.Reset()
				continue
			}
			sv.Stop()
			return Step[T]{Tag: TagStop}
		}

		// quiesce: nothing queued, nothing parked, nobody running, and a
		// final drain finds nothing buffered. Stable because no worker
		// exists to enqueue or spawn, and this goroutine is the only
		// other dispatcher.
		if sv.workers.LoadAcquire() == 0 &&
			sv.q.empty() &&
			(sv.heap == nil || sv.heap.empty()) {
			p.batch = sv.out.drain(p.batch)
			if len(p.batch) > 0 {
				bo.Reset()
				continue
			}
			if err := sv.failure(); err != nil {
				sv.Stop()
				return Step[T]{Tag: TagStop, Err: err}
			}
			sv.Stop()
			return Step[T]{Tag: TagStop}
		}

		// post-process hook: let the admission layer restart parked work
		sv.dispatch()
		bo.Wait()
	}
}
