// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

// Combine composes two streams under the style's monoid with default
// limits. Serial and WSerial compose in-line; the concurrent styles
// schedule both operands onto a fresh SVar, left first, and return its
// pull stream. Under Ahead the left operand takes the lower sequence
// number, so output order equals Serial's.
func Combine[T any](style Style, left, right Stream[T]) Stream[T] {
	return CombineWith(style, Config{}, left, right)
}

// CombineWith is Combine with explicit limits.
// The SVar is created lazily, when the combined stream is first forced; an
// unforced composition costs nothing.
func CombineWith[T any](style Style, cfg Config, left, right Stream[T]) Stream[T] {
	switch style {
	case Serial:
		return appendStream(left, right)
	case WSerial:
		return interleaveStream(left, right)
	}
	return CombineAllWith[T](style, cfg, left, right)
}

// CombineAll composes any number of streams under the style, with default
// limits, as one flat composition: a single SVar schedules every operand.
func CombineAll[T any](style Style, streams ...Stream[T]) Stream[T] {
	return CombineAllWith(style, Config{}, streams...)
}

// CombineAllWith is CombineAll with explicit limits. For Serial and
// WSerial the operands fold right-associated through the in-line
// composition. For the concurrent styles every operand is enqueued onto
// one SVar in order, keeping the queue one entry per pending operand
// instead of one nested SVar per composition.
func CombineAllWith[T any](style Style, cfg Config, streams ...Stream[T]) Stream[T] {
	switch len(streams) {
	case 0:
		return Empty[T]()
	case 1:
		return streams[0]
	}
	if !style.concurrent() {
		comb := appendStream[T]
		if style == WSerial {
			comb = interleaveStream[T]
		}
		out := streams[len(streams)-1]
		for i := len(streams) - 2; i >= 0; i-- {
			out = comb(streams[i], out)
		}
		return out
	}
	ss := streams
	return func() Step[T] {
		sv, err := NewSVar[T](style, cfg)
		if err != nil {
			return Step[T]{Tag: TagStop, Err: err}
		}
		for _, s := range ss {
			sv.enqueueWork(workItem[T]{stream: s})
		}
		sv.dispatch()
		return sv.Pull()()
	}
}

// FlatMap is FlatMapWith with default limits.
func FlatMap[A, T any](style Style, s Stream[A], f func(A) Stream[T]) Stream[T] {
	return FlatMapWith(style, Config{}, s, f)
}

// FlatMapWith is monadic bind under the style: every element a of s
// spawns the inner stream f(a), and each iteration inherits the style's
// scheduling and ordering.
//
// For the concurrent styles a driver work item iterates s on a worker and
// enqueues the inner streams onto the same SVar as it goes. Under Ahead
// the driver carries no sequence number, so the token is never parked
// behind it, while the inner streams take sequence numbers in source
// order - source-order output is preserved across iterations.
func FlatMapWith[A, T any](style Style, cfg Config, s Stream[A], f func(A) Stream[T]) Stream[T] {
	switch style {
	case Serial:
		return flatMapSerial(s, f)
	case WSerial:
		return flatMapInterleave(s, f)
	}
	return func() Step[T] {
		sv, err := NewSVar[T](style, cfg)
		if err != nil {
			return Step[T]{Tag: TagStop, Err: err}
		}
		sv.enqueueWork(workItem[T]{driver: bindDriver(sv, s, f)})
		sv.dispatch()
		return sv.Pull()()
	}
}

// bindDriver iterates the outer stream, feeding one inner stream per
// element onto sv. It checks admission between iterations so an
// abandoned or failed SVar stops the expansion.
func bindDriver[A, T any](sv *SVar[T], s Stream[A], f func(A) Stream[T]) func() {
	return func() {
		for {
			if sv.stopping() {
				return
			}
			st := s()
			switch st.Tag {
			case TagYield:
				sv.enqueueWork(workItem[T]{stream: f(st.Value)})
				sv.dispatch()
				s = st.Next
			case TagSingle:
				sv.enqueueWork(workItem[T]{stream: f(st.Value)})
				sv.dispatch()
				return
			default:
				sv.setFailure(st.Err)
				return
			}
		}
	}
}

func flatMapSerial[A, T any](s Stream[A], f func(A) Stream[T]) Stream[T] {
	return func() Step[T] {
		st := s()
		switch st.Tag {
		case TagYield:
			return appendStream(f(st.Value), flatMapSerial(st.Next, f))()
		case TagSingle:
			return f(st.Value)()
		default:
			return Step[T]{Tag: TagStop, Err: st.Err}
		}
	}
}

func flatMapInterleave[A, T any](s Stream[A], f func(A) Stream[T]) Stream[T] {
	return func() Step[T] {
		st := s()
		switch st.Tag {
		case TagYield:
			return interleaveStream(f(st.Value), flatMapInterleave(st.Next, f))()
		case TagSingle:
			return f(st.Value)()
		default:
			return Step[T]{Tag: TagStop, Err: st.Err}
		}
	}
}
