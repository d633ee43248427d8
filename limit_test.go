// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm_test

import (
	"testing"
	"time"

	"code.hybscloud.com/strm"
)

func TestMaxYieldsAheadInfinite(t *testing.T) {
	skipRace(t)
	sv, err := strm.NewSVar[int](strm.Ahead, strm.Config{MaxYields: 5})
	if err != nil {
		t.Fatalf("new svar: %v", err)
	}
	sv.Push(strm.Generate(func(n uint64) int { return int(n) }))
	vs, err := strm.Collect(sv.Pull())
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{0, 1, 2, 3, 4})
	waitQuiesce(t, sv)
}

func TestMaxYieldsAsync(t *testing.T) {
	skipRace(t)
	sv, err := strm.NewSVar[int](strm.Async, strm.Config{MaxYields: 3})
	if err != nil {
		t.Fatalf("new svar: %v", err)
	}
	sv.Push(strm.Generate(func(n uint64) int { return int(n) }))
	vs, err := strm.Collect(sv.Pull())
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	if len(vs) != 3 {
		t.Fatalf("got %d values, want 3", len(vs))
	}
	waitQuiesce(t, sv)
}

func TestMaxYieldsAcrossProducers(t *testing.T) {
	skipRace(t)
	cfg := strm.Config{MaxYields: 4}
	s := strm.CombineAllWith(strm.Ahead, cfg,
		strm.Of(1, 2, 3),
		strm.Of(4, 5, 6),
	)
	vs, err := strm.Collect(s)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	equalInts(t, vs, []int{1, 2, 3, 4})
}

func TestMaxRatePaces(t *testing.T) {
	skipRace(t)
	// 100 yields/second: the 10th value may not arrive before ~90ms
	cfg := strm.Config{MaxRate: 100}
	s := strm.CombineWith(strm.Async, cfg,
		strm.Take(strm.Generate(func(n uint64) int { return int(n) }), 10),
		strm.Empty[int](),
	)
	start := time.Now()
	vs, err := strm.Collect(s)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	elapsed := time.Since(start)
	if len(vs) != 10 {
		t.Fatalf("got %d values, want 10", len(vs))
	}
	if elapsed < 80*time.Millisecond {
		t.Fatalf("rate not paced: 10 yields in %v", elapsed)
	}
}

func TestTinyBufferAsyncComplete(t *testing.T) {
	skipRace(t)
	cfg := strm.Config{MaxBuffer: 1}
	s := strm.CombineAllWith(strm.Async, cfg,
		strm.Of(1, 2, 3, 4),
		strm.Of(5, 6, 7),
	)
	vs := collectSorted(t, s)
	equalInts(t, vs, []int{1, 2, 3, 4, 5, 6, 7})
}

func TestUnlimitedBuffer(t *testing.T) {
	skipRace(t)
	cfg := strm.Config{MaxBuffer: -1}
	s := strm.CombineWith(strm.Async, cfg,
		strm.Take(strm.Generate(func(n uint64) int { return int(n) }), 5000),
		strm.Empty[int](),
	)
	n, err := strm.Count(s)
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if n != 5000 {
		t.Fatalf("got %d values, want 5000", n)
	}
}

func TestLatencySeedGatesDispatch(t *testing.T) {
	skipRace(t)
	// a slow latency hint with a low rate keeps the pool at one worker;
	// values must still all arrive
	cfg := strm.Config{MaxRate: 1000, Latency: time.Millisecond}
	s := strm.CombineAllWith(strm.Async, cfg,
		strm.Of(1, 2), strm.Of(3, 4), strm.Of(5),
	)
	vs := collectSorted(t, s)
	equalInts(t, vs, []int{1, 2, 3, 4, 5})
}
