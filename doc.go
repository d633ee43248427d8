// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package strm provides a lazy stream datatype with a family of evaluation
// styles, from fully sequential to strictly parallel, scheduled over a
// per-stream rendezvous object (the SVar).
//
// # Architecture
//
//   - Streams: [Stream] is a lazy, affine step function producing tagged
//     [Step] values (stop, single, yield). Producers compose without being
//     evaluated.
//   - Styles: [Serial] and [WSerial] evaluate in-line. [Ahead], [Async],
//     [WAsync] and [Parallel] schedule producers onto an [SVar] worker
//     pool; [Ahead] restores source order through a sequence-numbered
//     min-heap and a publish token.
//   - Transport: workers deliver values to the single consumer through a
//     bounded lock-free MPSC ring via [code.hybscloud.com/lfq]; the
//     consumer drains it in batches.
//   - Non-blocking: a full buffer signals the producing worker with
//     [code.hybscloud.com/iox.ErrWouldBlock]; blocked sides wait with
//     adaptive backoff, never with channels or condition variables.
//   - Admission: per-SVar caps on workers, buffered yields and total
//     yields, plus an optional yield-rate pacer fed by a measured
//     per-yield latency estimate.
//
// # API Topologies
//
//   - Composition: [Combine], [CombineAll], [FlatMap] and the *With
//     variants taking a [Config].
//   - Scheduling: [NewSVar], [SVar.Push], [SVar.Pull], [SVar.Stop].
//   - Producers: [Of], [FromSlice], [Unfold], [Generate], or effect-world
//     computations on [code.hybscloud.com/kont] bridged with [FromEffect]
//     and [EmitThen].
//   - Consumers: [Collect], [Each], [Count], [Drain], plus [Map],
//     [Filter], [Take].
//
// # Ordering
//
// Serial, WSerial and Ahead are deterministic: Ahead's output equals
// Serial's for the same operands. Async, WAsync and Parallel deliver in
// arrival order. A producer failure is delivered to the consumer at most
// once, after the values buffered ahead of it.
//
// # Example
//
//	s := strm.CombineAll(strm.Ahead,
//		strm.Of(1, 2),
//		strm.Of(3, 4),
//	)
//	vs, err := strm.Collect(s) // [1 2 3 4], nil
package strm
