package scheduler

import (
	"slices"

	"github.com/arnavshah/festival-planner-go/pkg/interval"
)

// DefaultMaxPropagationRounds caps the context fixed-point iteration.
const DefaultMaxPropagationRounds = 10

// contextResult holds, per item, the sorted stage-group indices the item
// reserves space for.
type contextResult struct {
	sets      [][]int
	converged bool
	rounds    int
}

// buildContexts computes the stage-group context of every item in a day.
// groups[i] is the stage-group index of item i.
func buildContexts(groups []int, ix *interval.Index, maxRounds int) contextResult {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxPropagationRounds
	}

	sets := make([][]int, len(groups))
	for i := range groups {
		sim := maxSimContext(i, groups, ix)
		if sw := sandwichContext(i, groups, ix); len(sw) > len(sim) {
			sim = sw
		}
		sets[i] = sim
	}

	res := contextResult{sets: sets}
	for res.rounds < maxRounds {
		res.rounds++
		changed := false
		for i := range sets {
			for _, j := range ix.Neighbors(i) {
				if !contains(sets[i], groups[j]) || !outranks(sets[i], sets[j]) {
					continue
				}
				sets[j] = sets[i]
				changed = true
			}
		}
		if !changed {
			res.converged = true
			break
		}
	}
	return res
}

// maxSimContext returns the largest set of distinct groups simultaneously
// active at some instant within item i, including i's own group. Candidate
// instants are i's start and every neighbour start inside i.
func maxSimContext(i int, groups []int, ix *interval.Index) []int {
	self := ix.At(i)
	instants := []int{self.Start}
	for _, j := range ix.Neighbors(i) {
		if s := ix.At(j).Start; s > self.Start && s < self.End {
			instants = append(instants, s)
		}
	}
	slices.Sort(instants)

	var best []int
	for _, t := range instants {
		set := []int{groups[i]}
		for _, j := range ix.Neighbors(i) {
			if ix.At(j).Contains(t) {
				set = insert(set, groups[j])
			}
		}
		if len(set) > len(best) {
			best = set
		}
	}
	return best
}

// sandwichContext returns own ∪ left ∪ right when i overlaps groups ordered
// both before and after its own, and nil otherwise.
func sandwichContext(i int, groups []int, ix *interval.Index) []int {
	own := groups[i]
	set := []int{own}
	var left, right bool
	for _, j := range ix.Neighbors(i) {
		g := groups[j]
		switch {
		case g < own:
			left = true
		case g > own:
			right = true
		}
		set = insert(set, g)
	}
	if !left || !right {
		return nil
	}
	return set
}

// outranks orders contexts by size, then by lexicographically smaller group
// list. Equal contexts never outrank each other.
func outranks(a, b []int) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return slices.Compare(a, b) < 0
}

func contains(set []int, g int) bool {
	_, found := slices.BinarySearch(set, g)
	return found
}

// insert adds g to the sorted set if absent.
func insert(set []int, g int) []int {
	pos, found := slices.BinarySearch(set, g)
	if found {
		return set
	}
	return slices.Insert(set, pos, g)
}
