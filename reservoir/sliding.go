package reservoir

import (
	"sync"
	"sync/atomic"
)

// SlidingWindowReservoir keeps the most recent N updates in a ring buffer.
// Unlike UniformReservoir it is not probabilistic: it is exactly the last
// min(count, capacity) observations.
type SlidingWindowReservoir struct {
	count int64 // atomic, 1-indexed update counter

	mutex sync.Mutex
	ring  []Sample
}

// NewSlidingWindowReservoir returns a ring-buffer reservoir with the given
// capacity, or the default of 1028 when size <= 0.
func NewSlidingWindowReservoir(size int) *SlidingWindowReservoir {
	if size <= 0 {
		size = defaultReservoirSize
	}
	return &SlidingWindowReservoir{ring: make([]Sample, size)}
}

func (r *SlidingWindowReservoir) Size() int { return len(r.ring) }

func (r *SlidingWindowReservoir) Update(value int64, userValue string, hasUser bool) {
	k := atomic.AddInt64(&r.count, 1)
	idx := (k - 1) % int64(len(r.ring))

	r.mutex.Lock()
	r.ring[idx] = Sample{Value: value, UserValue: userValue, HasUser: hasUser, Weight: 1}
	r.mutex.Unlock()
}

func (r *SlidingWindowReservoir) Snapshot(reset bool) Snapshot {
	r.mutex.Lock()
	n := atomic.LoadInt64(&r.count)
	populated := n
	if populated > int64(len(r.ring)) {
		populated = int64(len(r.ring))
	}
	copied := make([]Sample, populated)
	copy(copied, r.ring[:populated])
	r.mutex.Unlock()

	if reset {
		r.Reset()
	}

	return newArraySnapshot(n, copied)
}

// Reset clears the buffer and the counter, unlike UniformReservoir's
// counter-only reset, since the ring buffer has no "unpopulated tail"
// concept to preserve: every slot below min(count,capacity) is always
// either live data or the zero Sample.
func (r *SlidingWindowReservoir) Reset() {
	r.mutex.Lock()
	for i := range r.ring {
		r.ring[i] = Sample{}
	}
	r.mutex.Unlock()
	atomic.StoreInt64(&r.count, 0)
}
