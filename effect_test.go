// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/strm"
)

func TestEffectProducer(t *testing.T) {
	producer := strm.EmitThen(1,
		strm.EmitThen(2,
			strm.EmitThen(3, strm.End()),
		),
	)
	vs, err := strm.Collect(strm.FromEffect[int](producer))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3})
}

func TestEffectProducerLoop(t *testing.T) {
	// effectful producers compose with kont's own combinators
	var emit func(n int) kont.Eff[struct{}]
	emit = func(n int) kont.Eff[struct{}] {
		if n > 4 {
			return strm.End()
		}
		return strm.EmitThen(n*n, kont.Suspend(func(k func(struct{}) kont.Resumed) kont.Resumed {
			return emit(n + 1)(k)
		}))
	}
	vs, err := strm.Collect(strm.FromEffect[int](emit(1)))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 4, 9, 16})
}

func TestEffectProducersUnderAhead(t *testing.T) {
	skipRace(t)
	left := strm.FromEffect[int](strm.EmitThen(1, strm.EmitThen(2, strm.End())))
	right := strm.FromEffect[int](strm.EmitThen(3, strm.End()))
	vs, err := strm.Collect(strm.Combine(strm.Ahead, left, right))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3})
}

type bogusOp struct {
	kont.Phantom[struct{}]
}

func TestUnhandledEffectPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-Emit effect")
		}
	}()
	s := strm.FromEffect[int](kont.Then(kont.Perform(bogusOp{}), strm.End()))
	_, _ = strm.Collect(s)
}
