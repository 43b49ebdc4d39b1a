package metriccore

import (
	"sync"

	"github.com/pascaldekloe/metriccore/reservoir"
)

// TimerValue is the value object produced by Timer.GetValue.
type TimerValue struct {
	Rate           MeterValue
	Histogram      HistogramValue
	ActiveSessions int64
	TotalTime      int64
	DurationUnit   TimeUnit
}

// Timer composes a Histogram and a Meter plus two striped counters
// (active_sessions, total_recorded_nanos).
type Timer struct {
	clock Clock

	histogram *Histogram
	meter     *Meter

	activeSessions *StripedAdder
	totalNanos     *StripedAdder
}

// NewTimer wraps r as the Timer's Histogram and starts a Meter ticking on
// scheduler.
func NewTimer(r reservoir.Reservoir, clock Clock, scheduler Scheduler) *Timer {
	return &Timer{
		clock:          clock,
		histogram:      NewHistogram(r),
		meter:          NewMeter(clock, scheduler),
		activeSessions: NewStripedAdder(),
		totalNanos:     NewStripedAdder(),
	}
}

// Record converts duration (expressed in unit) to nanoseconds and, if the
// result is non-negative, updates the histogram, marks the meter, and adds
// to the running total. A negative duration is silently ignored: a clock
// read race can yield small negatives that would otherwise poison
// histograms.
func (t *Timer) Record(duration int64, unit TimeUnit) {
	t.RecordWithUserValue(duration, unit, "", false)
}

// RecordWithUserValue is Record, additionally tagging the histogram
// observation with userValue.
func (t *Timer) RecordWithUserValue(duration int64, unit TimeUnit, userValue string, hasUser bool) {
	nanos := unit.ToNanos(duration)
	if nanos < 0 {
		return
	}

	t.histogram.UpdateWithUserValue(nanos, userValue, hasUser)
	t.meter.Mark(1)
	t.totalNanos.Add(nanos)
}

// Time runs action, recording its wall-clock duration regardless of
// whether it panics, and bumping active_sessions around the call.
func (t *Timer) Time(action func()) {
	t.TimeWithUserValue(action, "", false)
}

// TimeWithUserValue is Time, tagging the recorded observation with
// userValue.
func (t *Timer) TimeWithUserValue(action func(), userValue string, hasUser bool) {
	start := t.startRecording()
	defer t.endRecordingAndRecord(start, userValue, hasUser)
	action()
}

// startRecording bumps active_sessions and returns the start timestamp, for
// callers that want the advanced start/end API directly instead of the
// scoped Context below.
func (t *Timer) startRecording() int64 {
	t.activeSessions.Increment()
	return t.clock.Nanoseconds()
}

// endRecordingAndRecord decrements active_sessions and records the elapsed
// time since start.
func (t *Timer) endRecordingAndRecord(start int64, userValue string, hasUser bool) {
	end := t.clock.Nanoseconds()
	t.activeSessions.Decrement()
	t.RecordWithUserValue(end-start, Nanoseconds, userValue, hasUser)
}

// Context is a scoped acquisition of a recording session with guaranteed
// release on all exit paths (normal, early return, panic). Copying a
// Context is forbidden: only one call to Stop must ever run for a given
// session, which is why Context is handed out as a pointer and guards its
// own release with sync.Once.
type Context struct {
	timer     *Timer
	start     int64
	userValue string
	hasUser   bool
	stopOnce  sync.Once
}

// NewContext acquires a recording session: bumps active_sessions and
// starts the clock. Call Stop (typically via defer) exactly once to release
// it and record the elapsed duration.
func (t *Timer) NewContext() *Context {
	return t.NewContextWithUserValue("", false)
}

// NewContextWithUserValue is NewContext, tagging the eventual observation
// with userValue.
func (t *Timer) NewContextWithUserValue(userValue string, hasUser bool) *Context {
	return &Context{timer: t, start: t.startRecording(), userValue: userValue, hasUser: hasUser}
}

// Stop releases the session: decrements active_sessions and records the
// elapsed duration. Safe to call multiple times; only the first call has
// any effect, so a deferred Stop composed with an explicit early Stop never
// double-records.
func (c *Context) Stop() {
	c.stopOnce.Do(func() {
		c.timer.endRecordingAndRecord(c.start, c.userValue, c.hasUser)
	})
}

// GetValue packages the meter value, histogram value, current active
// sessions, and total recorded time, in durationUnit. A Timer with
// active_sessions > 0 at the time of this call still produces a consistent
// snapshot: active_sessions is a live counter, not history.
func (t *Timer) GetValue(reset bool, durationUnit TimeUnit) TimerValue {
	rate := t.meter.GetValue(reset)
	hv := t.histogram.GetValue(reset)
	if durationUnit != Nanoseconds {
		hv = hv.Scale(durationUnit.ScalingFactorTo(Nanoseconds))
	}
	active := t.activeSessions.GetValue()

	var total int64
	if reset {
		total = t.totalNanos.GetAndReset()
	} else {
		total = t.totalNanos.GetValue()
	}

	return TimerValue{
		Rate:           rate,
		Histogram:      hv,
		ActiveSessions: active,
		TotalTime:      durationUnit.FromNanos(total),
		DurationUnit:   durationUnit,
	}
}

// Stop cancels the Timer's underlying Meter tick schedule.
func (t *Timer) Stop() {
	t.meter.Stop()
}

// Scale rescales the meter and converts the histogram and total time to
// the target units, allocating a new value. Unlike a rate, a duration
// value gets larger as the unit shrinks, so the conversion factor is the
// reciprocal of ScalingFactorTo's rate convention.
func (v TimerValue) Scale(rateUnit, durationUnit TimeUnit) TimerValue {
	factor := durationUnit.ScalingFactorTo(v.DurationUnit)

	return TimerValue{
		Rate:           v.Rate.Scale(rateUnit),
		Histogram:      v.Histogram.Scale(factor),
		ActiveSessions: v.ActiveSessions,
		TotalTime:      int64(float64(v.TotalTime) * factor),
		DurationUnit:   durationUnit,
	}
}
