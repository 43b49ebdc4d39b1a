package metriccore

import "testing"

// TestCounterItemsPercent covers the scenario: increment("a",3);
// increment("b",1) => {count:4, items:[{a,3,75.0},{b,1,25.0}]}.
func TestCounterItemsPercent(t *testing.T) {
	c := NewCounter()
	c.IncrementItem("a", 3)
	c.IncrementItem("b", 1)

	v := c.GetValue(false)

	if v.Count != 4 {
		t.Fatalf("count = %d, want 4", v.Count)
	}
	if len(v.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(v.Items))
	}
	if v.Items[0].Key != "a" || v.Items[0].Count != 3 || v.Items[0].Percent != 75.0 {
		t.Errorf("items[0] = %+v, want {a 3 75}", v.Items[0])
	}
	if v.Items[1].Key != "b" || v.Items[1].Count != 1 || v.Items[1].Percent != 25.0 {
		t.Errorf("items[1] = %+v, want {b 1 25}", v.Items[1])
	}
}

func TestCounterPlainIncrementDecrement(t *testing.T) {
	c := NewCounter()
	c.Increment()
	c.IncrementBy(5)
	c.Decrement()

	if got := c.GetValue(false).Count; got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}
}

func TestCounterConcurrentIncrement(t *testing.T) {
	c := NewCounter()
	const goroutines = 50
	const perGoroutine = 1000

	done := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		go func() {
			for j := 0; j < perGoroutine; j++ {
				c.Increment()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	want := int64(goroutines * perGoroutine)
	if got := c.GetValue(false).Count; got != want {
		t.Fatalf("count = %d, want %d", got, want)
	}
}

func TestCounterResetNoDoubleCount(t *testing.T) {
	c := NewCounter()
	c.IncrementItem("x", 10)

	v := c.GetValue(true)
	if v.Count != 10 {
		t.Fatalf("count = %d, want 10", v.Count)
	}

	v2 := c.GetValue(false)
	if v2.Count != 0 {
		t.Fatalf("count after reset = %d, want 0", v2.Count)
	}
	if len(v2.Items) != 1 || v2.Items[0].Count != 0 {
		t.Fatalf("items after reset = %+v, want one zeroed item", v2.Items)
	}
}

func TestCounterItemsSortTieBreak(t *testing.T) {
	c := NewCounter()
	c.IncrementItem("b", 1)
	c.IncrementItem("a", 1)

	v := c.GetValue(false)
	if v.Items[0].Key != "a" || v.Items[1].Key != "b" {
		t.Fatalf("items = %+v, want [a b] on percent tie", v.Items)
	}
}
