package reservoir

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

const (
	defaultDecayAlpha         = 0.015
	defaultRescaleIntervalSec = 3600 // rescale every 1 hour
)

// decayingEntry is one stored sample keyed by its forward-decay priority.
type decayingEntry struct {
	priority  float64
	value     int64
	userValue string
	hasUser   bool
	weight    float64
}

// ExponentiallyDecayingReservoir implements the Cormode-Shkapenyuk-
// Srivastava-Xu forward-decay priority sample. Recent observations
// are weighted more heavily than old ones via exp(alpha*t); periodically the
// landmark is re-anchored ("rescale") to keep the exponent from overflowing
// without changing relative priorities.
//
// The stored structure is a sorted slice searched with sort.Search,
// generalizing rcrowley/go-metrics's ExpDecaySample sort.SearchFloat64s
// bucket-index idiom to priority-ordered eviction instead of a
// purpose-built ordered map/tree.
type ExponentiallyDecayingReservoir struct {
	alpha             float64
	rescaleIntervalSec int64
	nowSeconds        func() int64

	mutex    sync.Mutex
	entries  []decayingEntry // sorted ascending by priority
	count    int64
	landmark int64 // seconds
	nextRescale int64
	rng      *rand.Rand
	capacity int
}

// NewExponentiallyDecayingReservoir returns a reservoir with the given
// capacity (default 1028 when <= 0) and decay factor (default 0.015 when
// <= 0). nowSeconds supplies the current time in seconds, matching the
// clock injected at the call site.
func NewExponentiallyDecayingReservoir(size int, alpha float64, nowSeconds func() int64) *ExponentiallyDecayingReservoir {
	if size <= 0 {
		size = defaultReservoirSize
	}
	if alpha <= 0 {
		alpha = defaultDecayAlpha
	}
	if nowSeconds == nil {
		nowSeconds = func() int64 { return 0 }
	}

	r := &ExponentiallyDecayingReservoir{
		alpha:              alpha,
		rescaleIntervalSec: defaultRescaleIntervalSec,
		nowSeconds:         nowSeconds,
		capacity:           size,
		rng:                rand.New(rand.NewSource(rand.Int63())),
	}
	r.landmark = nowSeconds()
	r.nextRescale = r.landmark + r.rescaleIntervalSec
	return r
}

func (r *ExponentiallyDecayingReservoir) Size() int { return r.capacity }

func (r *ExponentiallyDecayingReservoir) weight(t int64) float64 {
	return math.Exp(r.alpha * float64(t-r.landmark))
}

// Update implements the priority-sample insert/evict rule: a fresh entry
// with a high enough priority evicts the reservoir's current lowest.
func (r *ExponentiallyDecayingReservoir) Update(value int64, userValue string, hasUser bool) {
	now := r.nowSeconds()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.rescaleIfDueLocked(now)

	w := r.weight(now)
	u := r.rng.Float64()
	for u == 0 {
		u = r.rng.Float64()
	}
	priority := w / u

	entry := decayingEntry{priority: priority, value: value, userValue: userValue, hasUser: hasUser, weight: w}
	r.count++

	if len(r.entries) < r.capacity {
		r.insertLocked(entry)
		return
	}

	// len(r.entries) == capacity: evict the lowest priority if the new
	// sample outranks it.
	if priority > r.entries[0].priority {
		r.entries = r.entries[1:]
		r.insertLocked(entry)
	}
}

// insertLocked keeps r.entries sorted ascending by priority via binary
// search + insert, mirroring the teacher's sort.SearchFloat64s usage.
func (r *ExponentiallyDecayingReservoir) insertLocked(e decayingEntry) {
	i := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].priority >= e.priority })
	r.entries = append(r.entries, decayingEntry{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = e
}

// rescaleIfDueLocked re-anchors the landmark when the configured interval
// has elapsed, multiplying every stored key and weight by
// exp(-alpha*(newLandmark-oldLandmark)) so relative priorities (and
// therefore the set of stored samples and their ordering) are preserved.
func (r *ExponentiallyDecayingReservoir) rescaleIfDueLocked(now int64) {
	if now < r.nextRescale {
		return
	}

	oldLandmark := r.landmark
	r.landmark = now
	r.nextRescale = now + r.rescaleIntervalSec

	factor := math.Exp(-r.alpha * float64(r.landmark-oldLandmark))
	for i := range r.entries {
		r.entries[i].priority *= factor
		r.entries[i].weight *= factor
	}
	// relative order among entries is unchanged since every priority is
	// scaled by the same positive factor; no re-sort needed. count is the
	// cumulative number of updates ever observed and is untouched by a
	// rescale, matching Uniform/SlidingWindow's counter semantics.
}

func (r *ExponentiallyDecayingReservoir) Snapshot(reset bool) Snapshot {
	r.mutex.Lock()
	count := r.count
	samples := make([]Sample, len(r.entries))
	for i, e := range r.entries {
		samples[i] = Sample{Value: e.value, UserValue: e.userValue, HasUser: e.hasUser, Weight: e.weight}
	}
	r.mutex.Unlock()

	if reset {
		r.Reset()
	}

	return NewWeightedSnapshot(count, samples)
}

// Reset clears stored entries, the count, and re-anchors the landmark to
// now.
func (r *ExponentiallyDecayingReservoir) Reset() {
	now := r.nowSeconds()

	r.mutex.Lock()
	r.entries = nil
	r.count = 0
	r.landmark = now
	r.nextRescale = now + r.rescaleIntervalSec
	r.mutex.Unlock()
}

// ForceRescale re-anchors the landmark immediately, for tests that want to
// exercise the rescale path deterministically instead of waiting an hour of
// injected clock time.
func (r *ExponentiallyDecayingReservoir) ForceRescale() {
	r.mutex.Lock()
	r.nextRescale = r.nowSeconds()
	r.mutex.Unlock()
}
