package metriccore

import "testing"

func TestTimeUnitToFromNanosRoundTrip(t *testing.T) {
	cases := []struct {
		unit  TimeUnit
		value int64
	}{
		{Seconds, 5},
		{Milliseconds, 1500},
		{Minutes, 2},
		{Hours, 3},
		{Days, 1},
	}
	for _, c := range cases {
		nanos := c.unit.ToNanos(c.value)
		back := c.unit.FromNanos(nanos)
		if back != c.value {
			t.Errorf("%s: round trip %d -> %d nanos -> %d, want %d", c.unit, c.value, nanos, back, c.value)
		}
	}
}

func TestTimeUnitScalingFactorAdjacent(t *testing.T) {
	if f := Seconds.ScalingFactorTo(Minutes); f != 60 {
		t.Errorf("seconds->minutes rate factor = %v, want 60", f)
	}
	if f := Minutes.ScalingFactorTo(Seconds); f != 1.0/60 {
		t.Errorf("minutes->seconds rate factor = %v, want 1/60", f)
	}
}

func TestTimeUnitScalingFactorNonAdjacent(t *testing.T) {
	// a per-nanosecond rate converted to a per-day rate: 1 event/ns implies
	// 86_400_000_000_000 events/day.
	f := Nanoseconds.ScalingFactorTo(Days)
	want := float64(24 * 60 * 60 * 1_000_000_000)
	if f != want {
		t.Errorf("nanoseconds->days rate factor = %v, want %v", f, want)
	}
}

func TestTimeUnitScalingFactorIdentity(t *testing.T) {
	for _, u := range []TimeUnit{Nanoseconds, Microseconds, Milliseconds, Seconds, Minutes, Hours, Days} {
		if f := u.ScalingFactorTo(u); f != 1 {
			t.Errorf("%s->%s factor = %v, want 1", u, u, f)
		}
	}
}

func TestTimeUnitString(t *testing.T) {
	if Seconds.String() != "seconds" {
		t.Errorf("String() = %q, want seconds", Seconds.String())
	}
	if TimeUnit(99).String() != "unknown" {
		t.Errorf("String() for invalid unit = %q, want unknown", TimeUnit(99).String())
	}
}
