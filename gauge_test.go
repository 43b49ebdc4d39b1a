package metriccore

import (
	"math"
	"testing"
)

func TestGaugeReadsComputedValue(t *testing.T) {
	g := NewGauge(func() float64 { return 3.5 }, nil)
	if got := g.GetValue(); got != 3.5 {
		t.Fatalf("GetValue() = %v, want 3.5", got)
	}
}

// TestGaugePanicYieldsNaNAndReportsError covers a failing gauge function:
// the panic never propagates, the reading is NaN, and the sink is
// notified.
func TestGaugePanicYieldsNaNAndReportsError(t *testing.T) {
	var reportedErr error
	var reportedMessage string
	sink := ErrorSinkFunc(func(err error, message string) {
		reportedErr = err
		reportedMessage = message
	})

	g := NewGauge(func() float64 { panic("boom") }, sink)

	got := g.GetValue()
	if !math.IsNaN(got) {
		t.Fatalf("GetValue() = %v, want NaN", got)
	}
	if reportedErr == nil {
		t.Fatal("expected an error to be reported to the sink")
	}
	if reportedMessage == "" {
		t.Error("expected a non-empty report message")
	}
}

func TestGaugeNilSinkUsesDefault(t *testing.T) {
	// Must not panic: a nil sink falls back to DefaultErrorSink.
	g := NewGauge(func() float64 { panic("boom") }, nil)
	got := g.GetValue()
	if !math.IsNaN(got) {
		t.Fatalf("GetValue() = %v, want NaN", got)
	}
}
