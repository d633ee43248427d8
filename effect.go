// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"code.hybscloud.com/kont"
)

// Emit is the effect operation for yielding a value of type T from an
// effect-world producer. Perform(Emit[T]{Value: v}) suspends the
// computation until the stream's consumer wants the next element.
type Emit[T any] struct {
	kont.Phantom[struct{}]
	Value T
}

// EmitThen yields a value and then continues with next.
// Fuses Perform(Emit[T]{Value: v}) + Then.
func EmitThen[T any](v T, next kont.Eff[struct{}]) kont.Eff[struct{}] {
	return kont.Then(kont.Perform(Emit[T]{Value: v}), next)
}

// End is the completed producer: it emits nothing further.
func End() kont.Eff[struct{}] {
	return kont.Pure(struct{}{})
}

// FromEffect turns an effect-world producer into a stream. Every Emit[T]
// the computation performs becomes one stream element, in program order;
// the computation resumes when the tail is forced, possibly on a
// different goroutine (suspensions are affine, like streams).
//
// Any other effect operation panics: streams handle only Emit.
func FromEffect[T any](m kont.Eff[struct{}]) Stream[T] {
	return func() Step[T] {
		_, susp := kont.StepExpr(kont.Reify(m))
		return emitStep[T](susp)
	}
}

func emitStep[T any](susp *kont.Suspension[struct{}]) Step[T] {
	if susp == nil {
		return Step[T]{Tag: TagStop}
	}
	op, ok := susp.Op().(Emit[T])
	if !ok {
		panic("strm: unhandled effect in stream producer")
	}
	return Step[T]{
		Value: op.Value,
		Tag:   TagYield,
		Next: func() Step[T] {
			_, next := susp.Resume(struct{}{})
			return emitStep[T](next)
		},
	}
}
