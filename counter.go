package metriccore

import (
	"sort"
	"sync"
)

// CounterItem is one entry of a Counter's per-item breakdown.
type CounterItem struct {
	Key     string
	Count   int64
	Percent float64
}

// CounterValue is the value object produced by Counter.GetValue.
type CounterValue struct {
	Count int64
	Items []CounterItem
}

// Counter is a cumulative metric moved up by the Increment methods and down
// by the Decrement methods, and zeroed by an explicit Reset. Tagged updates
// (IncrementItem) additionally maintain a per-item striped adder in a
// lazily-allocated map, following the teacher's lazy-map pattern from
// label.go's getOrAdd.
type Counter struct {
	total *StripedAdder

	itemsMutex sync.RWMutex
	itemKeys   []string
	itemAdders []*StripedAdder
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{total: NewStripedAdder()}
}

func (c *Counter) Increment()          { c.total.Increment() }
func (c *Counter) Decrement()          { c.total.Decrement() }
func (c *Counter) IncrementBy(n int64) { c.total.Add(n) }
func (c *Counter) DecrementBy(n int64) { c.total.Add(-n) }

// IncrementItem additionally updates item's own striped adder, creating it
// on first use: a read-locked lookup, then a write-locked re-check and
// append, so concurrent first uses of one key share a single adder.
func (c *Counter) IncrementItem(item string, n int64) {
	c.total.Add(n)
	c.itemAdder(item).Add(n)
}

func (c *Counter) itemAdder(item string) *StripedAdder {
	c.itemsMutex.RLock()
	for i, k := range c.itemKeys {
		if k == item {
			a := c.itemAdders[i]
			c.itemsMutex.RUnlock()
			return a
		}
	}
	c.itemsMutex.RUnlock()

	c.itemsMutex.Lock()
	defer c.itemsMutex.Unlock()
	for i, k := range c.itemKeys {
		if k == item {
			return c.itemAdders[i]
		}
	}
	a := NewStripedAdder()
	c.itemKeys = append(c.itemKeys, item)
	c.itemAdders = append(c.itemAdders, a)
	return a
}

// GetValue returns {count, items[]}, items sorted by percent descending
// then key ascending, percent = item_count/total*100 (or 0 if total==0).
// When reset is true, the aggregate and all per-item adders are reset
// atomically enough that no update is double-counted or lost across the
// reset boundary: each adder's GetAndReset is independent and idempotent,
// so a concurrent IncrementItem either lands before or after a given
// adder's own reset, never both.
func (c *Counter) GetValue(reset bool) CounterValue {
	c.itemsMutex.RLock()
	keys := append([]string(nil), c.itemKeys...)
	adders := append([]*StripedAdder(nil), c.itemAdders...)
	c.itemsMutex.RUnlock()

	var total int64
	var items []CounterItem
	if reset {
		total = c.total.GetAndReset()
		items = make([]CounterItem, len(keys))
		for i, k := range keys {
			items[i] = CounterItem{Key: k, Count: adders[i].GetAndReset()}
		}
	} else {
		total = c.total.GetValue()
		items = make([]CounterItem, len(keys))
		for i, k := range keys {
			items[i] = CounterItem{Key: k, Count: adders[i].GetValue()}
		}
	}

	for i := range items {
		if total > 0 {
			items[i].Percent = float64(items[i].Count) / float64(total) * 100
		}
	}
	sortCounterItems(items)

	return CounterValue{Count: total, Items: items}
}

func sortCounterItems(items []CounterItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Percent != items[j].Percent {
			return items[i].Percent > items[j].Percent
		}
		return items[i].Key < items[j].Key
	})
}

// Reset clears the aggregate and every per-item adder.
func (c *Counter) Reset() {
	c.total.Reset()
	c.itemsMutex.RLock()
	adders := c.itemAdders
	c.itemsMutex.RUnlock()
	for _, a := range adders {
		a.Reset()
	}
}
