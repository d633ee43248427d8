// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// cell is one unit of worker-to-consumer delivery: either a yielded value
// or a worker's final stop report.
type cell[T any] struct {
	value  T
	err    error
	worker uint32
	stop   bool
}

// outbuf is the output channel of an SVar: a bounded MPSC ring carrying
// cells from workers to the single puller, plus the buffered-yield count
// used for admission.
//
// The ring capacity rounds up past the configured buffer cap, so a push
// whose count claim succeeded can always find a slot once in-flight stop
// cells have been drained. count may momentarily exceed the number of
// cells in the ring (claim precedes enqueue), never the reverse.
type outbuf[T any] struct {
	ring  *lfq.MPSC[cell[T]]
	count atomix.Int64
}

func newOutbuf[T any](bufferCap int) *outbuf[T] {
	ringCap := bufferCap
	if ringCap < 0 {
		ringCap = DefaultMaxBuffer
	}
	if ringCap < 2 {
		ringCap = 2
	}
	return &outbuf[T]{ring: lfq.NewMPSC[cell[T]](ringCap)}
}

// drain moves every cell currently in the ring into dst, in insertion
// order, in one batch. The yield count is released as values are taken so
// workers regain buffer space immediately.
func (b *outbuf[T]) drain(dst []cell[T]) []cell[T] {
	for {
		c, err := b.ring.Dequeue()
		if err != nil {
			return dst
		}
		if !c.stop {
			b.count.Add(-1)
		}
		dst = append(dst, c)
	}
}
