package metriccore

import "time"

// fakeClock is a Clock whose Nanoseconds() is advanced explicitly by
// tests, for deterministic, sleep-free coverage of clock-dependent logic.
type fakeClock struct {
	nanos int64
}

func (c *fakeClock) Nanoseconds() int64      { return c.nanos }
func (c *fakeClock) UTCDateTime() time.Time  { return time.Unix(0, c.nanos).UTC() }
func (c *fakeClock) Advance(d time.Duration) { c.nanos += int64(d) }

// manualScheduler never starts a goroutine; tests call Tick directly to
// drive the registered action, avoiding any reliance on real time passing.
type manualScheduler struct {
	action func()
}

func (s *manualScheduler) Start(interval time.Duration, action func()) Handle {
	s.action = action
	return manualHandle{}
}

// Tick invokes the most recently started action, if any.
func (s *manualScheduler) Tick() {
	if s.action != nil {
		s.action()
	}
}

type manualHandle struct{}

func (manualHandle) Stop() {}
