package scheduler

import (
	"errors"
	"fmt"

	"github.com/arnavshah/festival-planner-go/pkg/interval"
)

// DefaultMaxLanes bounds the greedy lane search.
const DefaultMaxLanes = 50

// ErrTooManySimultaneousEvents is wrapped by TooManySimultaneousEventsError.
var ErrTooManySimultaneousEvents = errors.New("too many simultaneous events")

// TooManySimultaneousEventsError is returned when an event would need a lane
// beyond the configured bound.
type TooManySimultaneousEventsError struct {
	EventID string
	Day     string
	Limit   int
}

func (e *TooManySimultaneousEventsError) Error() string {
	return fmt.Sprintf("event %q on %q needs more than %d lanes", e.EventID, e.Day, e.Limit)
}

func (e *TooManySimultaneousEventsError) Unwrap() error {
	return ErrTooManySimultaneousEvents
}

// assignLanes walks items in the given order and gives each the lowest lane
// not held by an already-assigned overlapping item.
func assignLanes(items []item, order []int, ix *interval.Index, limit int) ([]int, error) {
	lanes := make([]int, len(items))
	for i := range lanes {
		lanes[i] = -1
	}

	taken := make([]bool, limit)
	for _, i := range order {
		clear(taken)
		for _, j := range ix.Neighbors(i) {
			if l := lanes[j]; l >= 0 && l < limit {
				taken[l] = true
			}
		}

		lane := -1
		for l := 0; l < limit; l++ {
			if !taken[l] {
				lane = l
				break
			}
		}
		if lane < 0 {
			return nil, &TooManySimultaneousEventsError{
				EventID: items[i].ev.ID,
				Day:     items[i].ev.Day,
				Limit:   limit,
			}
		}
		lanes[i] = lane
	}
	return lanes, nil
}
