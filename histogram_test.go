package metriccore

import (
	"testing"

	"github.com/pascaldekloe/metriccore/reservoir"
)

func TestHistogramLastValue(t *testing.T) {
	h := NewHistogram(reservoir.NewUniformReservoir(100))
	h.UpdateWithUserValue(42, "req-1", true)

	v := h.GetValue(false)
	if v.LastValue != 42 || v.LastUserValue != "req-1" || !v.HasLastUser {
		t.Fatalf("last observation = %+v, want {42 req-1 true}", v)
	}
}

func TestHistogramResetClearsLast(t *testing.T) {
	h := NewHistogram(reservoir.NewUniformReservoir(100))
	h.Update(7)

	v := h.GetValue(true)
	if v.LastValue != 7 {
		t.Fatalf("last value before reset = %d, want 7", v.LastValue)
	}

	v2 := h.GetValue(false)
	if v2.LastValue != 0 || v2.HasLastUser {
		t.Fatalf("last observation after reset = %+v, want empty", v2)
	}
	if v2.Snapshot.Count() != 0 || v2.Snapshot.Size() != 0 {
		t.Fatalf("snapshot after reset = count:%d size:%d, want 0/0", v2.Snapshot.Count(), v2.Snapshot.Size())
	}
}

func TestHistogramSnapshotSortedMinMax(t *testing.T) {
	h := NewHistogram(reservoir.NewUniformReservoir(1000))
	for _, v := range []int64{5, 1, 9, 3, 7} {
		h.Update(v)
	}

	snap := h.GetValue(false).Snapshot
	values := snap.Values()

	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("values not sorted: %v", values)
		}
	}
	if snap.Min() != values[0] || snap.Max() != values[len(values)-1] {
		t.Fatalf("min/max = %d/%d, want %d/%d", snap.Min(), snap.Max(), values[0], values[len(values)-1])
	}
	lo, err := snap.GetValue(0)
	if err != nil {
		t.Fatalf("GetValue(0) error: %v", err)
	}
	hi, err := snap.GetValue(1)
	if err != nil {
		t.Fatalf("GetValue(1) error: %v", err)
	}
	if lo != float64(snap.Min()) || hi != float64(snap.Max()) {
		t.Errorf("GetValue(0)/GetValue(1) = %v/%v, want min/max", lo, hi)
	}
}

func TestHistogramSnapshotGetValueRejectsOutOfRangeQuantile(t *testing.T) {
	h := NewHistogram(reservoir.NewUniformReservoir(100))
	h.Update(1)

	if _, err := h.GetValue(false).Snapshot.GetValue(1.5); err == nil {
		t.Fatal("expected an error for quantile outside [0,1]")
	}
}
