// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"testing"
	"time"

	"code.hybscloud.com/strm"
)

func TestAheadRestoresSourceOrder(t *testing.T) {
	skipRace(t)
	// slowest producer first: completion order is 3,2,1 but output
	// order must be source order, and the sleeps must overlap
	start := time.Now()
	s := strm.CombineAll(strm.Ahead,
		delayed(300*time.Millisecond, 1),
		delayed(200*time.Millisecond, 2),
		delayed(100*time.Millisecond, 3),
	)
	vs, err := strm.Collect(s)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3})
	if elapsed := time.Since(start); elapsed > 550*time.Millisecond {
		t.Fatalf("producers did not overlap: %v elapsed", elapsed)
	}
}

func TestAheadEqualsSerial(t *testing.T) {
	skipRace(t)
	parts := [][]int{{1, 2, 3}, {4}, {}, {5, 6}, {7, 8, 9, 10}}
	build := func(style strm.Style) strm.Stream[int] {
		streams := make([]strm.Stream[int], len(parts))
		for i, p := range parts {
			streams[i] = strm.FromSlice(p)
		}
		return strm.CombineAll(style, streams...)
	}
	want, err := strm.Collect(build(strm.Serial))
	if err != nil {
		t.Fatalf("serial collect: %v", err)
	}
	got, err := strm.Collect(build(strm.Ahead))
	if err != nil {
		t.Fatalf("ahead collect: %v", err)
	}
	equalInts(t, got, want)
}

func TestAheadManyProducers(t *testing.T) {
	skipRace(t)
	const n = 64
	streams := make([]strm.Stream[int], n)
	want := make([]int, 0, n*2)
	for i := 0; i < n; i++ {
		d := time.Duration((i*7)%5) * time.Millisecond
		streams[i] = delayed(d, i*2, i*2+1)
		want = append(want, i*2, i*2+1)
	}
	vs, err := strm.Collect(strm.CombineAll(strm.Ahead, streams...))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, want)
}

func TestAheadEmptyProducersProgress(t *testing.T) {
	skipRace(t)
	// producers that retire without yielding must not strand the token
	streams := []strm.Stream[int]{
		strm.Empty[int](),
		strm.Of(1),
		strm.Empty[int](),
		strm.Empty[int](),
		strm.Of(2, 3),
		strm.Empty[int](),
	}
	vs, err := strm.Collect(strm.CombineAll(strm.Ahead, streams...))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3})
}

func TestAheadFilteredPrefixProgress(t *testing.T) {
	skipRace(t)
	// a filter that eliminates a long prefix produces producers whose
	// speculative steps find values late; progress must hold throughout
	pred := func(n int) bool { return n >= 990 }
	streams := make([]strm.Stream[int], 4)
	for i := range streams {
		base := i * 1000
		streams[i] = strm.Filter(
			strm.Take(strm.Generate(func(n uint64) int { return base + int(n) }), 1000),
			func(n int) bool { return pred(n - base) },
		)
	}
	vs, err := strm.Collect(strm.CombineAll(strm.Ahead, streams...))
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	if len(vs) != 4*10 {
		t.Fatalf("got %d values, want 40", len(vs))
	}
	for i := 1; i < len(vs); i++ {
		if vs[i-1] >= vs[i] {
			t.Fatalf("order violated at %d: %v", i, vs[i-1:i+1])
		}
	}
}

func TestAheadTinyBuffer(t *testing.T) {
	skipRace(t)
	// with a one-slot buffer the token holder re-parks its remainder on
	// the heap every push; order and completeness must survive
	cfg := strm.Config{MaxBuffer: 1}
	s := strm.CombineAllWith(strm.Ahead, cfg,
		strm.Of(1, 2, 3, 4, 5),
		strm.Of(6, 7, 8),
		strm.Of(9, 10),
	)
	vs, err := strm.Collect(s)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
}

func TestAheadFlatMapOrder(t *testing.T) {
	skipRace(t)
	s := strm.FlatMap(strm.Ahead, strm.Of(3, 1, 2), func(n int) strm.Stream[int] {
		return delayed(time.Duration(n)*20*time.Millisecond, n*10, n*10+1)
	})
	vs, err := strm.Collect(s)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	// iterations keep source order regardless of their duration
	equalInts(t, vs, []int{30, 31, 10, 11, 20, 21})
}

func TestAheadDeterministic(t *testing.T) {
	skipRace(t)
	build := func() strm.Stream[int] {
		return strm.CombineAll(strm.Ahead,
			delayed(5*time.Millisecond, 1, 2),
			strm.Of(3),
			delayed(1*time.Millisecond, 4, 5, 6),
		)
	}
	a, err := strm.Collect(build())
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	b, err := strm.Collect(build())
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, a, b)
}
