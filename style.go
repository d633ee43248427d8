// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

// Style selects the evaluation discipline for composed streams.
//
// Serial and WSerial evaluate in-line on the forcing goroutine; the other
// four schedule producers onto an SVar's worker pool.
type Style uint8

const (
	// Serial evaluates producers depth-first, in source order, on one
	// goroutine.
	Serial Style = iota
	// WSerial interleaves producers breadth-first, one element at a time,
	// on one goroutine.
	WSerial
	// Ahead evaluates producers speculatively on workers but delivers
	// results in source order.
	Ahead
	// Async evaluates producers on workers with a LIFO work discipline;
	// results arrive in completion order.
	Async
	// WAsync evaluates producers on workers breadth-first: each round
	// takes one element from the front branch of the FIFO and re-queues
	// the remainder, visiting top-level branches round-robin. Results
	// arrive in completion order.
	WAsync
	// Parallel fires a worker per producer, up to the thread cap.
	Parallel
)

// concurrent reports whether the style schedules work onto an SVar.
func (s Style) concurrent() bool {
	return s >= Ahead
}

// lifo reports whether the style drains its work queue newest-first.
func (s Style) lifo() bool {
	return s == Async
}

func (s Style) String() string {
	switch s {
	case Serial:
		return "Serial"
	case WSerial:
		return "WSerial"
	case Ahead:
		return "Ahead"
	case Async:
		return "Async"
	case WAsync:
		return "WAsync"
	case Parallel:
		return "Parallel"
	}
	return "Style(?)"
}
