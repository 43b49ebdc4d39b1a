package metriccore

import (
	"sync/atomic"
	"unsafe"

	"github.com/pascaldekloe/metriccore/reservoir"
)

// lastObservation is the most recently observed {value, user_value} of a
// Histogram, published last-writer-wins as an atomic pointer to an
// immutable struct, so a reader never sees a torn pair. It is advisory: it
// is read separately from the reservoir snapshot and need not match it.
type lastObservation struct {
	value     int64
	userValue string
	hasUser   bool
}

// HistogramValue is the value object produced by Histogram.GetValue.
type HistogramValue struct {
	LastValue     int64
	LastUserValue string
	HasLastUser   bool
	Snapshot      reservoir.Snapshot
}

// Histogram owns a Reservoir and tracks the most recently observed sample.
type Histogram struct {
	reservoir reservoir.Reservoir
	last      unsafe.Pointer // *lastObservation, atomic
}

// NewHistogram wraps an already-constructed Reservoir (one of the four
// variants in package reservoir).
func NewHistogram(r reservoir.Reservoir) *Histogram {
	h := &Histogram{reservoir: r}
	empty := &lastObservation{}
	atomic.StorePointer(&h.last, unsafe.Pointer(empty))
	return h
}

// Update forwards value to the reservoir and publishes it as the last
// observation.
func (h *Histogram) Update(value int64) {
	h.UpdateWithUserValue(value, "", false)
}

// UpdateWithUserValue forwards value (tagged with userValue) to the
// reservoir and publishes it as the last observation.
func (h *Histogram) UpdateWithUserValue(value int64, userValue string, hasUser bool) {
	h.reservoir.Update(value, userValue, hasUser)
	atomic.StorePointer(&h.last, unsafe.Pointer(&lastObservation{value: value, userValue: userValue, hasUser: hasUser}))
}

// GetValue snapshots the reservoir and packages it with the last
// observation. On reset, the published last observation returns to
// empty.
func (h *Histogram) GetValue(reset bool) HistogramValue {
	snap := h.reservoir.Snapshot(reset)
	last := (*lastObservation)(atomic.LoadPointer(&h.last))

	if reset {
		atomic.StorePointer(&h.last, unsafe.Pointer(&lastObservation{}))
	}

	return HistogramValue{
		LastValue:     last.value,
		LastUserValue: last.userValue,
		HasLastUser:   last.hasUser,
		Snapshot:      snap,
	}
}

// Reset resets the underlying reservoir and clears the last observation.
func (h *Histogram) Reset() {
	h.reservoir.Reset()
	atomic.StorePointer(&h.last, unsafe.Pointer(&lastObservation{}))
}

// Scale converts a HistogramValue from one duration unit to another by
// multiplying every value-denominated field by factor, which the caller
// (Timer.GetValue, TimerValue.Scale) computes from the two units. LastValue,
// Min, Max, Mean, StdDev, Values, GetValue(q) and the named percentiles are
// all scaled; Count, Size and the user values are unchanged.
func (v HistogramValue) Scale(factor float64) HistogramValue {
	return HistogramValue{
		LastValue:     int64(float64(v.LastValue) * factor),
		LastUserValue: v.LastUserValue,
		HasLastUser:   v.HasLastUser,
		Snapshot:      scaledSnapshot{inner: v.Snapshot, factor: factor},
	}
}

// scaledSnapshot decorates a reservoir.Snapshot with a linear value scale,
// used for converting nanosecond-denominated histogram snapshots into an
// exporter's requested duration unit. Scaling is pure and allocates a new
// value.
type scaledSnapshot struct {
	inner  reservoir.Snapshot
	factor float64
}

func (s scaledSnapshot) Count() int64 { return s.inner.Count() }
func (s scaledSnapshot) Size() int    { return s.inner.Size() }
func (s scaledSnapshot) Min() int64   { return int64(float64(s.inner.Min()) * s.factor) }
func (s scaledSnapshot) Max() int64   { return int64(float64(s.inner.Max()) * s.factor) }

func (s scaledSnapshot) MinUserValue() (string, bool) { return s.inner.MinUserValue() }
func (s scaledSnapshot) MaxUserValue() (string, bool) { return s.inner.MaxUserValue() }

func (s scaledSnapshot) Mean() float64   { return s.inner.Mean() * s.factor }
func (s scaledSnapshot) StdDev() float64 { return s.inner.StdDev() * s.factor }

func (s scaledSnapshot) Median() float64        { return s.inner.Median() * s.factor }
func (s scaledSnapshot) Percentile75() float64  { return s.inner.Percentile75() * s.factor }
func (s scaledSnapshot) Percentile95() float64  { return s.inner.Percentile95() * s.factor }
func (s scaledSnapshot) Percentile98() float64  { return s.inner.Percentile98() * s.factor }
func (s scaledSnapshot) Percentile99() float64  { return s.inner.Percentile99() * s.factor }
func (s scaledSnapshot) Percentile999() float64 { return s.inner.Percentile999() * s.factor }

func (s scaledSnapshot) GetValue(q float64) (float64, error) {
	v, err := s.inner.GetValue(q)
	if err != nil {
		return 0, err
	}
	return v * s.factor, nil
}

func (s scaledSnapshot) Values() []int64 {
	raw := s.inner.Values()
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = int64(float64(v) * s.factor)
	}
	return out
}
