package metriccore

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	uberatomic "go.uber.org/atomic"
)

// tickIntervalNanos is Delta: the scheduler interval SimpleMeter
// expects to be ticked at.
const tickIntervalNanos = 5e9

// ewmaAlpha is alpha_w = 1 - exp(-Delta/(60*w)) for w in {1,5,15} minutes,
// computed once at package init.
var (
	ewmaAlpha1  = 1 - math.Exp(-tickIntervalNanos/1e9/60)
	ewmaAlpha5  = 1 - math.Exp(-tickIntervalNanos/1e9/(60*5))
	ewmaAlpha15 = 1 - math.Exp(-tickIntervalNanos/1e9/(60*15))
)

// SimpleMeter is the EWMA rate engine: three exponentially-weighted
// moving average rates (1/5/15 minutes) advanced by a tick driven from the
// outside (by Scheduler), plus the raw count needed for a mean rate.
//
// Grounded on other_examples/060a357b_mia0x75-go-metrics__meter.go.go (a
// rcrowley/go-metrics meter.go fork), which keeps its EWMA state as
// bit-pattern-over-atomic-uint64 cells. This instead leans on the
// AtomicLong/AtomicDouble cells already used elsewhere in this package, so
// the meter's state reads as typed fields rather than raw atomic
// plumbing.
type SimpleMeter struct {
	uncounted *StripedAdder // events since the last tick
	total     AtomicLong    // events counted as of the last tick

	m1, m5, m15 AtomicDouble // current per-nanosecond EWMA rate
	initialized uberatomic.Bool
}

// NewSimpleMeter returns a SimpleMeter with all rates at zero and
// uninitialized: before the first tick, rates read as 0.
func NewSimpleMeter() *SimpleMeter {
	return &SimpleMeter{uncounted: NewStripedAdder()}
}

// Mark records n events.
func (m *SimpleMeter) Mark(n int64) {
	m.uncounted.Add(n)
}

// Tick advances the EWMA state by one tick interval. Interval is carried
// internally in nanoseconds, so the stored m1/m5/m15 state is a
// per-nanosecond rate; GetValue scales it to per-second only at read time.
func (m *SimpleMeter) Tick() {
	count := m.uncounted.GetAndReset()
	m.total.Add(count)

	instant := float64(count) / tickIntervalNanos

	if m.initialized.CAS(false, true) {
		m.m1.Set(instant)
		m.m5.Set(instant)
		m.m15.Set(instant)
		return
	}

	updateEWMA(&m.m1, instant, ewmaAlpha1)
	updateEWMA(&m.m5, instant, ewmaAlpha5)
	updateEWMA(&m.m15, instant, ewmaAlpha15)
}

func updateEWMA(cell *AtomicDouble, instant, alpha float64) {
	old := cell.Get()
	cell.Set(old + alpha*(instant-old))
}

// SimpleMeterValue is the read-only output of SimpleMeter.GetValue.
type SimpleMeterValue struct {
	Count    int64
	MeanRate float64
	M1       float64
	M5       float64
	M15      float64
}

// GetValue computes a value over elapsedNanos, the time since the meter (or
// its owning Meter) started.
func (m *SimpleMeter) GetValue(elapsedNanos int64) SimpleMeterValue {
	count := m.total.Get() + m.uncounted.GetValue()

	var meanRate float64
	if elapsedNanos > 0 {
		meanRate = float64(count) / float64(elapsedNanos) * 1e9
	}

	return SimpleMeterValue{
		Count:    count,
		MeanRate: meanRate,
		M1:       m.m1.Get() * 1e9,
		M5:       m.m5.Get() * 1e9,
		M15:      m.m15.Get() * 1e9,
	}
}

// Reset zeros the meter's entire state, including the initialized flag so
// subsequent GetValue calls report zero rates until the next Tick.
func (m *SimpleMeter) Reset() {
	m.uncounted.Reset()
	m.total.Set(0)
	m.m1.Set(0)
	m.m5.Set(0)
	m.m15.Set(0)
	m.initialized.Store(false)
}

// SetItem is one entry of a Meter's per-item breakdown, sorted by
// PercentOfTotal descending then Key ascending. (Counter uses CounterItem.)
type SetItem struct {
	Key           string
	PercentOfTotal float64
	Meter         *MeterValue
}

// MeterValue is the value object produced by Meter.GetValue.
type MeterValue struct {
	Count      int64
	MeanRate   float64
	M1         float64
	M5         float64
	M15        float64
	RateUnit   TimeUnit
	Items      []SetItem
}

// Meter wraps SimpleMeter with a lazily-created map of per-item meters.
// Tagged updates (Mark(item, n)) mark both the global meter and the item's
// own meter.
type Meter struct {
	clock     Clock
	scheduler Scheduler
	handle    Handle

	startTime int64 // nanoseconds, from clock

	global *SimpleMeter

	itemsMutex sync.RWMutex
	itemKeys   []string
	itemMeters []*SimpleMeter
}

// NewMeter constructs a Meter and starts its tick schedule on scheduler at
// the default 5-second interval.
func NewMeter(clock Clock, scheduler Scheduler) *Meter {
	m := &Meter{
		clock:     clock,
		scheduler: scheduler,
		startTime: clock.Nanoseconds(),
		global:    NewSimpleMeter(),
	}
	m.handle = scheduler.Start(tickIntervalNanos, m.tick)
	return m
}

func (m *Meter) tick() {
	m.global.Tick()

	m.itemsMutex.RLock()
	meters := m.itemMeters
	m.itemsMutex.RUnlock()

	for _, im := range meters {
		im.Tick()
	}
}

// Mark records n events against the global meter.
func (m *Meter) Mark(n int64) {
	m.global.Mark(n)
}

// MarkItem records n events against both the global meter and the named
// item's own meter, lazily creating the item's meter on first use: a
// read-locked lookup, then a write-locked re-check and append, so
// concurrent first uses of one key share a single meter.
func (m *Meter) MarkItem(item string, n int64) {
	m.global.Mark(n)
	m.itemMeter(item).Mark(n)
}

func (m *Meter) itemMeter(item string) *SimpleMeter {
	m.itemsMutex.RLock()
	for i, k := range m.itemKeys {
		if k == item {
			im := m.itemMeters[i]
			m.itemsMutex.RUnlock()
			return im
		}
	}
	m.itemsMutex.RUnlock()

	m.itemsMutex.Lock()
	defer m.itemsMutex.Unlock()
	for i, k := range m.itemKeys {
		if k == item {
			return m.itemMeters[i]
		}
	}
	im := NewSimpleMeter()
	m.itemKeys = append(m.itemKeys, item)
	m.itemMeters = append(m.itemMeters, im)
	return im
}

// GetValue computes the base value over elapsed = now - start_time, then
// each item's value over the same elapsed, with percent = item.count /
// total * 100. When reset is true, start_time, the global state,
// and every item meter are reset; the items map itself is never dropped so
// existing exporters keep seeing the same set of item keys.
func (m *Meter) GetValue(reset bool) MeterValue {
	now := m.clock.Nanoseconds()

	m.itemsMutex.RLock()
	keys := append([]string(nil), m.itemKeys...)
	meters := append([]*SimpleMeter(nil), m.itemMeters...)
	m.itemsMutex.RUnlock()

	start := atomic.LoadInt64(&m.startTime)
	elapsed := now - start

	base := m.global.GetValue(elapsed)

	items := make([]SetItem, len(keys))
	for i, k := range keys {
		iv := meters[i].GetValue(elapsed)
		var percent float64
		if base.Count > 0 {
			percent = float64(iv.Count) / float64(base.Count) * 100
		}
		items[i] = SetItem{
			Key:            k,
			PercentOfTotal: percent,
			Meter: &MeterValue{
				Count:    iv.Count,
				MeanRate: iv.MeanRate,
				M1:       iv.M1,
				M5:       iv.M5,
				M15:      iv.M15,
				RateUnit: Seconds,
			},
		}
	}
	sortSetItems(items)

	if reset {
		atomic.StoreInt64(&m.startTime, now)
		m.global.Reset()
		for _, im := range meters {
			im.Reset()
		}
	}

	return MeterValue{
		Count:    base.Count,
		MeanRate: base.MeanRate,
		M1:       base.M1,
		M5:       base.M5,
		M15:      base.M15,
		RateUnit: Seconds,
		Items:    items,
	}
}

// sortSetItems orders by PercentOfTotal descending, ties by Key ascending.
func sortSetItems(items []SetItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].PercentOfTotal != items[j].PercentOfTotal {
			return items[i].PercentOfTotal > items[j].PercentOfTotal
		}
		return items[i].Key < items[j].Key
	})
}

// Stop cancels the meter's tick schedule. Call this before releasing a
// Meter to free its scheduler handle.
func (m *Meter) Stop() {
	m.handle.Stop()
}

// Scale multiplies all rate fields by source.ScalingFactorTo(target) and
// rescales nested items, allocating a new value.
func (v MeterValue) Scale(target TimeUnit) MeterValue {
	factor := v.RateUnit.ScalingFactorTo(target)

	items := make([]SetItem, len(v.Items))
	for i, it := range v.Items {
		scaledNested := it.Meter.Scale(target)
		items[i] = SetItem{Key: it.Key, PercentOfTotal: it.PercentOfTotal, Meter: &scaledNested}
	}

	return MeterValue{
		Count:    v.Count,
		MeanRate: v.MeanRate * factor,
		M1:       v.M1 * factor,
		M5:       v.M5 * factor,
		M15:      v.M15 * factor,
		RateUnit: target,
		Items:    items,
	}
}
