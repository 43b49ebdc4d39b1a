package metriccore

import "math"

// Gauge is a value-producing metric: its reading is computed on demand by
// an injected function rather than accumulated. A failing (panicking)
// function is reported to an ErrorSink and the gauge reads as NaN for
// that call; it never panics out to the caller.
type Gauge struct {
	valueFunc func() float64
	sink      ErrorSink
}

// NewGauge returns a Gauge backed by valueFunc. A nil sink uses
// DefaultErrorSink.
func NewGauge(valueFunc func() float64, sink ErrorSink) *Gauge {
	if sink == nil {
		sink = DefaultErrorSink()
	}
	return &Gauge{valueFunc: valueFunc, sink: sink}
}

// GetValue invokes the backing function, converting a panic into a reported
// error and a NaN result.
func (g *Gauge) GetValue() (value float64) {
	defer func() {
		if r := recover(); r != nil {
			err, wasErr := r.(error)
			if !wasErr {
				err = &MetricError{Kind: ErrGaugeFunction, Message: "gauge function panicked"}
			}
			g.sink.Report(err, "gauge function failed")
			value = math.NaN()
		}
	}()

	return g.valueFunc()
}
