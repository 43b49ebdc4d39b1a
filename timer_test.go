package metriccore

import (
	"testing"
	"time"

	"github.com/pascaldekloe/metriccore/reservoir"
)

// TestTimerScopedContext covers the scenario: acquire a context tagged
// "id-42", advance the clock by 50ms, Stop it; the histogram's last
// observation must land in [40ms,80ms] of nanoseconds, tagged "id-42", and
// active_sessions must return to 0.
func TestTimerScopedContext(t *testing.T) {
	clock := &fakeClock{}
	sched := &manualScheduler{}
	timer := NewTimer(reservoir.NewUniformReservoir(100), clock, sched)

	ctx := timer.NewContextWithUserValue("id-42", true)
	clock.Advance(50 * time.Millisecond)
	ctx.Stop()

	v := timer.GetValue(false, Nanoseconds)
	lo := int64(40 * time.Millisecond)
	hi := int64(80 * time.Millisecond)
	if v.Histogram.LastValue < lo || v.Histogram.LastValue > hi {
		t.Fatalf("last recorded duration = %d ns, want in [%d,%d]", v.Histogram.LastValue, lo, hi)
	}
	if v.Histogram.LastUserValue != "id-42" || !v.Histogram.HasLastUser {
		t.Fatalf("last user value = %q (set=%v), want id-42", v.Histogram.LastUserValue, v.Histogram.HasLastUser)
	}
	if v.ActiveSessions != 0 {
		t.Fatalf("active sessions = %d, want 0", v.ActiveSessions)
	}
}

func TestTimerContextStopIsIdempotent(t *testing.T) {
	clock := &fakeClock{}
	sched := &manualScheduler{}
	timer := NewTimer(reservoir.NewUniformReservoir(100), clock, sched)

	ctx := timer.NewContext()
	clock.Advance(10 * time.Millisecond)
	ctx.Stop()
	ctx.Stop()
	ctx.Stop()

	if got := timer.GetValue(false, Nanoseconds).ActiveSessions; got != 0 {
		t.Fatalf("active sessions after repeated Stop = %d, want 0", got)
	}
	if got := timer.GetValue(false, Nanoseconds).Rate.Count; got != 1 {
		t.Fatalf("recorded events = %d, want exactly 1 despite 3 Stop calls", got)
	}
}

func TestTimerTimeRecordsOnPanic(t *testing.T) {
	clock := &fakeClock{}
	sched := &manualScheduler{}
	timer := NewTimer(reservoir.NewUniformReservoir(100), clock, sched)

	func() {
		defer func() { recover() }()
		timer.Time(func() {
			clock.Advance(5 * time.Millisecond)
			panic("boom")
		})
	}()

	v := timer.GetValue(false, Nanoseconds)
	if v.ActiveSessions != 0 {
		t.Fatalf("active sessions after panicking action = %d, want 0", v.ActiveSessions)
	}
	if v.Rate.Count != 1 {
		t.Fatalf("recorded events after panicking action = %d, want 1", v.Rate.Count)
	}
}

func TestTimerNegativeDurationIgnored(t *testing.T) {
	clock := &fakeClock{}
	sched := &manualScheduler{}
	timer := NewTimer(reservoir.NewUniformReservoir(100), clock, sched)

	timer.Record(-1, Nanoseconds)

	v := timer.GetValue(false, Nanoseconds)
	if v.Rate.Count != 0 {
		t.Fatalf("count after negative duration = %d, want 0 (silently ignored)", v.Rate.Count)
	}
}

func TestTimerScaling(t *testing.T) {
	clock := &fakeClock{}
	sched := &manualScheduler{}
	timer := NewTimer(reservoir.NewUniformReservoir(100), clock, sched)

	timer.Record(2, Seconds)

	v := timer.GetValue(false, Seconds)
	if v.TotalTime != 2 {
		t.Fatalf("total time = %d seconds, want 2", v.TotalTime)
	}

	scaled := v.Scale(Seconds, Milliseconds)
	if scaled.TotalTime != 2000 {
		t.Fatalf("scaled total time = %d ms, want 2000", scaled.TotalTime)
	}
}
