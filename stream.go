// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

// Tag discriminates the three step variants of a stream.
type Tag uint8

const (
	// TagStop terminates the stream. A non-nil Step.Err carries a
	// producer failure.
	TagStop Tag = iota
	// TagSingle yields a final value with no tail.
	TagSingle
	// TagYield yields a value and a tail stream.
	TagYield
)

// Step is one forced evaluation step of a stream.
type Step[T any] struct {
	// Value is valid for TagSingle and TagYield.
	Value T

	// Next is the tail stream. Valid only for TagYield.
	Next Stream[T]

	// Err is the producer failure. Valid only for TagStop.
	Err error

	// Tag selects the variant.
	Tag Tag
}

// Stream is a lazy stream of values of type T.
// Forcing a stream produces exactly one Step.
//
// Streams are affine: a stream value is forced at most once, and the tail
// returned by a Yield step is owned by whoever forced it. Ownership may
// move between goroutines (the Ahead evaluator resumes heap-held tails on
// arbitrary workers), but never aliases.
type Stream[T any] func() Step[T]

// Empty returns a stream that stops immediately.
func Empty[T any]() Stream[T] {
	return func() Step[T] {
		return Step[T]{Tag: TagStop}
	}
}

// Fail returns a stream that stops immediately with err.
func Fail[T any](err error) Stream[T] {
	return func() Step[T] {
		return Step[T]{Tag: TagStop, Err: err}
	}
}

// Of returns a stream of the given values, in order.
func Of[T any](vs ...T) Stream[T] {
	return FromSlice(vs)
}

// FromSlice returns a stream of the elements of s, in order.
// The slice must not be mutated while the stream is live.
func FromSlice[T any](s []T) Stream[T] {
	return func() Step[T] {
		switch len(s) {
		case 0:
			return Step[T]{Tag: TagStop}
		case 1:
			return Step[T]{Value: s[0], Tag: TagSingle}
		default:
			return Step[T]{Value: s[0], Next: FromSlice(s[1:]), Tag: TagYield}
		}
	}
}

// Cons prepends v to s.
func Cons[T any](v T, s Stream[T]) Stream[T] {
	return func() Step[T] {
		return Step[T]{Value: v, Next: s, Tag: TagYield}
	}
}

// singleStream is Cons without a tail: one value, then stop.
func singleStream[T any](v T) Stream[T] {
	return func() Step[T] {
		return Step[T]{Value: v, Tag: TagSingle}
	}
}

// Unfold builds a stream from a seed. f returns the next value, the next
// seed, and false to stop.
func Unfold[S, T any](seed S, f func(S) (T, S, bool)) Stream[T] {
	return func() Step[T] {
		v, next, ok := f(seed)
		if !ok {
			return Step[T]{Tag: TagStop}
		}
		return Step[T]{Value: v, Next: Unfold(next, f), Tag: TagYield}
	}
}

// Generate returns the infinite stream f(0), f(1), f(2), …
func Generate[T any](f func(n uint64) T) Stream[T] {
	return generateFrom(0, f)
}

func generateFrom[T any](n uint64, f func(n uint64) T) Stream[T] {
	return func() Step[T] {
		return Step[T]{Value: f(n), Next: generateFrom(n+1, f), Tag: TagYield}
	}
}

// Map transforms each element of s with f.
func Map[A, B any](s Stream[A], f func(A) B) Stream[B] {
	return func() Step[B] {
		st := s()
		switch st.Tag {
		case TagYield:
			return Step[B]{Value: f(st.Value), Next: Map(st.Next, f), Tag: TagYield}
		case TagSingle:
			return Step[B]{Value: f(st.Value), Tag: TagSingle}
		default:
			return Step[B]{Tag: TagStop, Err: st.Err}
		}
	}
}

// Filter keeps the elements of s for which pred is true.
func Filter[T any](s Stream[T], pred func(T) bool) Stream[T] {
	return func() Step[T] {
		for {
			st := s()
			switch st.Tag {
			case TagYield:
				if pred(st.Value) {
					return Step[T]{Value: st.Value, Next: Filter(st.Next, pred), Tag: TagYield}
				}
				s = st.Next
			case TagSingle:
				if pred(st.Value) {
					return Step[T]{Value: st.Value, Tag: TagSingle}
				}
				return Step[T]{Tag: TagStop}
			default:
				return st
			}
		}
	}
}

// Take yields at most n elements of s.
func Take[T any](s Stream[T], n int) Stream[T] {
	return func() Step[T] {
		if n <= 0 {
			return Step[T]{Tag: TagStop}
		}
		st := s()
		switch st.Tag {
		case TagYield:
			if n == 1 {
				return Step[T]{Value: st.Value, Tag: TagSingle}
			}
			return Step[T]{Value: st.Value, Next: Take(st.Next, n-1), Tag: TagYield}
		default:
			return st
		}
	}
}

// appendStream evaluates a depth-first and continues with b when a stops.
// A failure in a short-circuits; b is never forced.
func appendStream[T any](a, b Stream[T]) Stream[T] {
	return func() Step[T] {
		st := a()
		switch st.Tag {
		case TagYield:
			return Step[T]{Value: st.Value, Next: appendStream(st.Next, b), Tag: TagYield}
		case TagSingle:
			return Step[T]{Value: st.Value, Next: b, Tag: TagYield}
		default:
			if st.Err != nil {
				return st
			}
			return b()
		}
	}
}

// interleaveStream yields one element of a, then swaps the operands.
// Top-level branches are visited round-robin, one element at a time.
func interleaveStream[T any](a, b Stream[T]) Stream[T] {
	return func() Step[T] {
		st := a()
		switch st.Tag {
		case TagYield:
			return Step[T]{Value: st.Value, Next: interleaveStream(b, st.Next), Tag: TagYield}
		case TagSingle:
			return Step[T]{Value: st.Value, Next: b, Tag: TagYield}
		default:
			if st.Err != nil {
				return st
			}
			return b()
		}
	}
}

// Collect drains s into a slice. On a producer failure it returns the
// values observed before the failure together with the error.
func Collect[T any](s Stream[T]) ([]T, error) {
	var out []T
	for {
		st := s()
		switch st.Tag {
		case TagYield:
			out = append(out, st.Value)
			s = st.Next
		case TagSingle:
			return append(out, st.Value), nil
		default:
			return out, st.Err
		}
	}
}

// Each calls f for every element of s.
func Each[T any](s Stream[T], f func(T)) error {
	for {
		st := s()
		switch st.Tag {
		case TagYield:
			f(st.Value)
			s = st.Next
		case TagSingle:
			f(st.Value)
			return nil
		default:
			return st.Err
		}
	}
}

// Count drains s and returns the number of elements.
func Count[T any](s Stream[T]) (int, error) {
	n := 0
	err := Each(s, func(T) { n++ })
	return n, err
}

// Drain forces s to completion, discarding values.
func Drain[T any](s Stream[T]) error {
	return Each(s, func(T) {})
}
