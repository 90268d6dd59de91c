package scheduler

import (
	"github.com/arnavshah/festival-planner-go/pkg/interval"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

const (
	// DefaultMaxFavoriteWidthPct caps lanes in the pooled favorites layout.
	DefaultMaxFavoriteWidthPct = 50.0
	// DefaultMaxColumnWidthPct caps lanes inside a stage-group column.
	DefaultMaxColumnWidthPct = 33.0
)

// spread places lane out of columns equal slots inside [offset, offset+span).
// Slots are capped at maxWidth and the unused remainder is split evenly on
// both sides.
func spread(lane, columns int, offset, span, maxWidth float64) (left, width float64) {
	if columns < 1 {
		columns = 1
	}
	width = span / float64(columns)
	if maxWidth > 0 {
		width = min(width, maxWidth)
	}
	padding := (span - float64(columns)*width) / 2
	return offset + padding + float64(lane)*width, width
}

// clusterColumns returns, per item, the largest of need(k) over every item k
// in the same overlap cluster, so that interacting items share one column
// count.
func clusterColumns(ix *interval.Index, need func(int) int) []int {
	clusters := ix.Clusters()
	best := make(map[int]int)
	for i, c := range clusters {
		best[c] = max(best[c], need(i))
	}
	out := make([]int, len(clusters))
	for i, c := range clusters {
		out[i] = best[c]
	}
	return out
}

// verticalPlace maps an item onto the day's axis.
func verticalPlace(axis timeline.Axis, origin int, iv interval.Interval) (top, height float64) {
	return axis.Place(iv.Start-origin, iv.Len())
}
