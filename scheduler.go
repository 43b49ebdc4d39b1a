package metriccore

import (
	"sync"
	"time"
)

// Scheduler runs an action approximately every interval, skipping an
// overlapping tick rather than running the action concurrently with itself.
// The default implementation is grounded on the single ticking
// goroutine in other_examples' rcrowley/go-metrics-derived meterArbiter: one
// goroutine per handle, reading from a time.Ticker, guarded so Stop only
// returns once any in-flight action has observed cancellation.
type Scheduler interface {
	// Start launches action on interval and returns a handle that can be
	// passed to Stop.
	Start(interval time.Duration, action func()) Handle
}

// Handle cancels a scheduled action.
type Handle interface {
	// Stop cancels future ticks and blocks until any action already in
	// flight has returned. Stop is idempotent.
	Stop()
}

// tickerScheduler is the default Scheduler, one goroutine per handle.
type tickerScheduler struct {
	sink ErrorSink
}

// NewTickerScheduler returns the default Scheduler. Failures out of action
// (via panic) are reported to sink as a scheduler action failure and
// cancel that handle's schedule. A nil sink uses DefaultErrorSink.
func NewTickerScheduler(sink ErrorSink) Scheduler {
	if sink == nil {
		sink = DefaultErrorSink()
	}
	return &tickerScheduler{sink: sink}
}

type tickerHandle struct {
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func (s *tickerScheduler) Start(interval time.Duration, action func()) Handle {
	if interval <= 0 {
		panic(invalidArgument("scheduler interval must be positive, got %s", interval))
	}

	h := &tickerHandle{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go h.run(interval, action, s.sink)

	return h
}

func (h *tickerHandle) run(interval time.Duration, action func(), sink ErrorSink) {
	defer close(h.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if !h.runOnce(action, sink) {
				return
			}
		}
	}
}

// runOnce executes action, converting a panic into a reported error. It
// returns false when the schedule should be cancelled after a failed
// action.
func (h *tickerHandle) runOnce(action func(), sink ErrorSink) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err, wasErr := r.(error)
			if !wasErr {
				err = &MetricError{Kind: ErrSchedulerAction, Message: "scheduled action panicked"}
			}
			sink.Report(err, "scheduled action failed")
		}
	}()

	action()
	return true
}

func (h *tickerHandle) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	<-h.doneCh
}
