// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultMaxThreads is the worker cap applied when Config.MaxThreads
	// is zero.
	DefaultMaxThreads = 1500

	// DefaultMaxBuffer is the buffered-yield cap applied when
	// Config.MaxBuffer is zero.
	DefaultMaxBuffer = 1500

	// defaultLatency seeds the per-yield latency estimate before any
	// worker has been measured.
	defaultLatency = 10 * time.Microsecond
)

// ErrBadRate is returned by NewSVar when Config.MaxRate is negative or
// not finite.
var ErrBadRate = errors.New("strm: rate must be non-negative and finite")

// ErrSerialStyle is returned by NewSVar for Serial and WSerial: those
// styles evaluate in-line and have no scheduling state.
var ErrSerialStyle = errors.New("strm: serial styles have no SVar")

// ErrStopped is reported by operations on an SVar whose consumer is gone.
var ErrStopped = errors.New("strm: svar stopped")

// Config bounds the scheduling of one SVar.
//
// For MaxThreads and MaxBuffer, zero selects the default and a negative
// value removes the limit. MaxYields is a remaining-output budget; zero or
// negative means unlimited. MaxRate is a target in yields per second; zero
// means unpaced, and a negative or non-finite rate is rejected at SVar
// creation. Latency seeds the per-yield latency estimate used to gate
// dispatch under MaxRate; zero selects the default, after which the
// estimate is measured from finished workers.
type Config struct {
	MaxThreads int
	MaxBuffer  int
	MaxYields  int64
	MaxRate    float64
	Latency    time.Duration
}

// limits is the normalized form of Config. Negative caps mean unlimited.
type limits struct {
	threadCap int
	bufferCap int
	yieldCap  int64
	rate      float64
	latency   time.Duration
}

func (c Config) normalize() (limits, error) {
	l := limits{
		threadCap: c.MaxThreads,
		bufferCap: c.MaxBuffer,
		yieldCap:  c.MaxYields,
		rate:      c.MaxRate,
		latency:   c.Latency,
	}
	if l.threadCap == 0 {
		l.threadCap = DefaultMaxThreads
	}
	if l.bufferCap == 0 {
		l.bufferCap = DefaultMaxBuffer
	}
	if l.yieldCap <= 0 {
		l.yieldCap = -1
	}
	if l.rate < 0 || math.IsNaN(l.rate) || math.IsInf(l.rate, 0) {
		return limits{}, ErrBadRate
	}
	if l.latency <= 0 {
		l.latency = defaultLatency
	}
	return l, nil
}
