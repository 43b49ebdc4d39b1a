package metriccore

import "go.uber.org/atomic"

// AtomicLong is a single 64-bit signed integer cell with atomic access.
// It is a thin wrapper over go.uber.org/atomic so that call sites in this
// package read like typed value objects rather than raw atomic.Int64
// plumbing.
type AtomicLong struct {
	cell atomic.Int64
}

func (a *AtomicLong) Get() int64 { return a.cell.Load() }

func (a *AtomicLong) Set(v int64) { a.cell.Store(v) }

func (a *AtomicLong) Add(delta int64) int64 { return a.cell.Add(delta) }

func (a *AtomicLong) CompareAndSwap(old, new int64) bool {
	return a.cell.CAS(old, new)
}

// AtomicDouble is a single 64-bit float cell with atomic access.
// go.uber.org/atomic's Float64 stores the IEEE-754 bit pattern under the
// hood, which round-trips NaN correctly since it never interprets the
// bits arithmetically except inside CompareAndSwap/Add.
type AtomicDouble struct {
	cell atomic.Float64
}

func (a *AtomicDouble) Get() float64 { return a.cell.Load() }

func (a *AtomicDouble) Set(v float64) { a.cell.Store(v) }

func (a *AtomicDouble) Add(delta float64) float64 { return a.cell.Add(delta) }

func (a *AtomicDouble) CompareAndSwap(old, new float64) bool {
	return a.cell.CAS(old, new)
}
