package analytics

import (
	"math"
	"sort"
)

// tally counts occurrences and remembers first-seen order, which breaks ties when sorting.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally(seed ...string) *tally {
	t := &tally{counts: make(map[string]int)}
	for _, s := range seed {
		t.ensure(s)
	}
	return t
}

func (t *tally) ensure(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
		t.counts[key] = 0
	}
}

func (t *tally) add(key string) {
	t.ensure(key)
	t.counts[key]++
}

// items returns every key in first-seen order with its share of total.
func (t *tally) items(total int) []BreakdownItem {
	out := make([]BreakdownItem, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, BreakdownItem{
			Name:       k,
			Count:      t.counts[k],
			Percentage: percentage(t.counts[k], total),
		})
	}
	return out
}

// sorted returns items by count descending; equal counts keep first-seen order.
func (t *tally) sorted(total int) []BreakdownItem {
	out := t.items(total)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// top returns at most n items of sorted.
func (t *tally) top(total, n int) []BreakdownItem {
	out := t.sorted(total)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// percentage is part/total*100 rounded to one decimal, or 0 when total is 0.
func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}
