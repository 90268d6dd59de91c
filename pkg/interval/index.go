package interval

import (
	"cmp"
	"slices"
)

// Index answers overlap queries over a fixed set of intervals. Neighbour
// lists are built with a sweep over start-sorted items, so construction is
// O(n log n + k) where k is the number of overlapping pairs.
type Index struct {
	items     []Interval
	neighbors [][]int
}

// NewIndex builds an index. Item positions in the input are the ids used by
// every query.
func NewIndex(items []Interval) *Index {
	ix := &Index{
		items:     items,
		neighbors: make([][]int, len(items)),
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(items[a].Start, items[b].Start)
	})

	for pos, i := range order {
		for _, j := range order[pos+1:] {
			if items[j].Start >= items[i].End {
				break
			}
			if Overlaps(items[i], items[j]) {
				ix.neighbors[i] = append(ix.neighbors[i], j)
				ix.neighbors[j] = append(ix.neighbors[j], i)
			}
		}
	}
	for i := range ix.neighbors {
		slices.Sort(ix.neighbors[i])
	}
	return ix
}

// Len returns the number of indexed intervals.
func (ix *Index) Len() int {
	return len(ix.items)
}

// At returns the interval stored under id i.
func (ix *Index) At(i int) Interval {
	return ix.items[i]
}

// Neighbors returns the ids of every interval overlapping item i, ascending.
func (ix *Index) Neighbors(i int) []int {
	return ix.neighbors[i]
}

// Clusters labels every item with the id of its connected component in the
// overlap graph. Component ids are the smallest member id.
func (ix *Index) Clusters() []int {
	parent := make([]int, len(ix.items))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for i, ns := range ix.neighbors {
		for _, j := range ns {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			// keep the smaller id as root so labels are stable
			if ri < rj {
				parent[rj] = ri
			} else {
				parent[ri] = rj
			}
		}
	}

	out := make([]int, len(parent))
	for i := range parent {
		out[i] = find(i)
	}
	return out
}
