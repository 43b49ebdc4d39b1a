package reservoir

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

const defaultReservoirSize = 1028

// UniformReservoir implements Vitter's Algorithm R: a fixed-capacity
// uniform random sample of an unbounded stream. The k-th update (1-indexed)
// is stored directly while k <= capacity; past that, a slot is replaced with
// decreasing probability so every observed value has equal probability of
// still being present in the sample.
type UniformReservoir struct {
	count int64 // atomic, 1-indexed update counter

	mutex sync.Mutex
	slots []Sample
	rng   *rand.Rand
}

// NewUniformReservoir returns a reservoir with the given capacity, or the
// default of 1028 when size <= 0.
func NewUniformReservoir(size int) *UniformReservoir {
	if size <= 0 {
		size = defaultReservoirSize
	}
	return &UniformReservoir{
		slots: make([]Sample, size),
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

func (r *UniformReservoir) Size() int { return len(r.slots) }

func (r *UniformReservoir) Update(value int64, userValue string, hasUser bool) {
	k := atomic.AddInt64(&r.count, 1)
	sample := Sample{Value: value, UserValue: userValue, HasUser: hasUser, Weight: 1}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if k <= int64(len(r.slots)) {
		r.slots[k-1] = sample
		return
	}

	i := r.rng.Int63n(k)
	if i < int64(len(r.slots)) {
		r.slots[i] = sample
	}
}

// Snapshot copies the populated prefix of slots (bounded by min(count,
// capacity)) under the lock, then sorts the private copy outside of it.
func (r *UniformReservoir) Snapshot(reset bool) Snapshot {
	r.mutex.Lock()
	n := atomic.LoadInt64(&r.count)
	populated := n
	if populated > int64(len(r.slots)) {
		populated = int64(len(r.slots))
	}
	copied := make([]Sample, populated)
	copy(copied, r.slots[:populated])
	r.mutex.Unlock()

	if reset {
		r.Reset()
	}

	return newArraySnapshot(n, copied)
}

// Reset clears only the update counter; it deliberately leaves the backing
// slots untouched. A Snapshot(reset=true) call still reports the data
// observed at the moment of the call, since the counter is read before it
// is cleared; but an Update racing the boundary of a Reset can still land
// in a slot whose old contents were never overwritten by this reset,
// avoiding the cost of a full slot wipe on every reset.
func (r *UniformReservoir) Reset() {
	atomic.StoreInt64(&r.count, 0)
}
