package interval

import (
	"cmp"
	"slices"
)

// Interval is a half-open span [Start, End) in minutes.
type Interval struct {
	Start int
	End   int
}

// Len returns the duration of the interval.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// Contains reports whether minute t falls inside the interval.
func (iv Interval) Contains(t int) bool {
	return iv.Start <= t && t < iv.End
}

// Overlaps checks if two half-open ranges overlap. Touching ranges do not.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Merge collapses overlapping intervals into disjoint covering runs, sorted by
// start. The input is not modified.
func Merge(items []Interval) []Interval {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b Interval) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if iv.Start < cur.End {
			cur.End = max(cur.End, iv.End)
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Total sums the durations of the given intervals.
func Total(items []Interval) int {
	sum := 0
	for _, iv := range items {
		sum += iv.Len()
	}
	return sum
}
