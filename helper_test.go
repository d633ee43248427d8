// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"sort"
	"testing"
	"time"

	"code.hybscloud.com/strm"
)

// delayed returns a producer that sleeps d when first forced and then
// yields vs in order. Used to make completion order differ from source
// order in the concurrent-style tests.
func delayed[T any](d time.Duration, vs ...T) strm.Stream[T] {
	return func() strm.Step[T] {
		time.Sleep(d)
		return strm.FromSlice(vs)()
	}
}

// collectSorted drains s and returns its values sorted, for the
// arrival-order styles where only the multiset is specified.
func collectSorted(tb testing.TB, s strm.Stream[int]) []int {
	tb.Helper()
	vs, err := strm.Collect(s)
	if err != nil {
		tb.Fatalf("collect error: %v", err)
	}
	sort.Ints(vs)
	return vs
}

// equalInts fails the test unless got equals want element-wise.
func equalInts(tb testing.TB, got, want []int) {
	tb.Helper()
	if len(got) != len(want) {
		tb.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			tb.Fatalf("got %v, want %v", got, want)
		}
	}
}

// waitQuiesce polls until the SVar has no live workers, failing after a
// bounded delay.
func waitQuiesce[T any](tb testing.TB, sv *strm.SVar[T]) {
	tb.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for sv.Live() != 0 {
		if time.Now().After(deadline) {
			tb.Fatalf("workers did not quiesce: %d live", sv.Live())
		}
		time.Sleep(time.Millisecond)
	}
}
