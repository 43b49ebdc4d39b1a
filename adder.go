package metriccore

import (
	"runtime"
	"sync/atomic"
	_ "unsafe"
)

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()

// cacheLinePad over-pads a stripe to at least 128 bytes to avoid false
// sharing between adjacent stripes on the same cache line.
const cacheLinePad = 128 - 8

type stripedCell struct {
	value atomic.Int64
	_     [cacheLinePad]byte
}

// StripedAdder is a wait-free 64-bit counter sharded across cells. A
// writer picks a cell via the current P, so independent goroutines on
// independent Ps rarely contend on the same cache line. GetValue sums all
// cells with relaxed ordering: callers only need eventual consistency,
// not a transactionally-consistent total. GetAndReset
// atomically exchanges each cell with 0 and sums the exchanged values, so a
// concurrent Add either lands before the exchange (counted in this reset) or
// after it (counted in the next).
//
// Grounded on _examples/etalazz-vsa/vsa.go's striped-atomics technique
// (padded stripe cells, procPin-based chooser, power-of-two stripe count),
// generalized here from VSA's single accumulator into a reusable counter.
type StripedAdder struct {
	stripes []stripedCell
	mask    int32
}

// NewStripedAdder returns a StripedAdder sized to the current GOMAXPROCS,
// clamped to a sane range and rounded up to a power of two so stripe
// selection can use a mask instead of a modulo.
func NewStripedAdder() *StripedAdder {
	n := runtime.GOMAXPROCS(0)
	if n < 4 {
		n = 4
	}
	if n > 64 {
		n = 64
	}
	n = nextPow2(n)

	return &StripedAdder{
		stripes: make([]stripedCell, n),
		mask:    int32(n - 1),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Add adds delta to a stripe chosen for the calling goroutine's current P.
func (a *StripedAdder) Add(delta int64) {
	a.stripes[a.chooseStripe()].value.Add(delta)
}

// Increment adds 1.
func (a *StripedAdder) Increment() { a.Add(1) }

// Decrement subtracts 1.
func (a *StripedAdder) Decrement() { a.Add(-1) }

// chooseStripe picks a stripe index from the goroutine's current P.
// procPin is an unexported runtime function reached via go:linkname,
// mirroring the technique in vsa.go; it is pinned/unpinned immediately
// around the read since no blocking happens in between.
func (a *StripedAdder) chooseStripe() int32 {
	p := int32(runtime_procPin())
	runtime_procUnpin()
	return p & a.mask
}

// GetValue returns the sum of all stripes. This is not a transactionally
// consistent total: concurrent Adds may be observed or not, independently
// per stripe, which is acceptable since snapshots only need eventual
// consistency.
func (a *StripedAdder) GetValue() int64 {
	var sum int64
	for i := range a.stripes {
		sum += a.stripes[i].value.Load()
	}
	return sum
}

// GetAndReset atomically swaps each stripe to 0 and returns the sum of the
// exchanged values. A concurrent Add that lands in a cell after it has been
// swapped to zero is counted in the next GetAndReset/GetValue, never lost
// and never double-counted.
func (a *StripedAdder) GetAndReset() int64 {
	var sum int64
	for i := range a.stripes {
		sum += a.stripes[i].value.Swap(0)
	}
	return sum
}

// Reset zeros every stripe without returning the prior total.
func (a *StripedAdder) Reset() {
	for i := range a.stripes {
		a.stripes[i].value.Store(0)
	}
}
