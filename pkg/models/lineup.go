package models

import (
	"errors"
	"fmt"

	"github.com/arnavshah/festival-planner-go/pkg/interval"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

var (
	ErrUnknownStage  = errors.New("unknown stage")
	ErrUnknownDay    = errors.New("unknown day")
	ErrInvalidLineup = errors.New("invalid lineup")
)

// StageGroup pairs one or two stages into a single display column.
type StageGroup struct {
	Name   string   `json:"name" yaml:"name"`
	Stages []string `json:"stages" yaml:"stages"`
}

// Day is a festival day with its nominal active window.
type Day struct {
	Label string `json:"label" yaml:"label"`
	// Date is the calendar date the day starts on (YYYY-MM-DD), optional.
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`
	WindowStart string `json:"window_start" yaml:"window_start"`
	WindowEnd   string `json:"window_end" yaml:"window_end"`
}

type stageSlot struct {
	group    int
	priority int
}

// Lineup is the static festival configuration: ordered days and ordered stage
// groups. The order of StageGroups is the left-to-right column order.
type Lineup struct {
	Days        []Day
	StageGroups []StageGroup

	stages map[string]stageSlot
	days   map[string]int
}

// NewLineup validates and indexes a lineup.
func NewLineup(days []Day, groups []StageGroup) (*Lineup, error) {
	l := &Lineup{
		Days:        days,
		StageGroups: groups,
		stages:      make(map[string]stageSlot),
		days:        make(map[string]int, len(days)),
	}

	for i, d := range days {
		if d.Label == "" {
			return nil, fmt.Errorf("%w: day %d has no label", ErrInvalidLineup, i)
		}
		if _, dup := l.days[d.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate day %q", ErrInvalidLineup, d.Label)
		}
		l.days[d.Label] = i
	}

	for gi, g := range groups {
		if len(g.Stages) == 0 || len(g.Stages) > 2 {
			return nil, fmt.Errorf("%w: stage group %q must hold one or two stages", ErrInvalidLineup, g.Name)
		}
		for pi, s := range g.Stages {
			if _, dup := l.stages[s]; dup {
				return nil, fmt.Errorf("%w: stage %q belongs to more than one group", ErrInvalidLineup, s)
			}
			l.stages[s] = stageSlot{group: gi, priority: pi}
		}
	}
	return l, nil
}

// GroupOf returns the stage group index of a stage and the stage's priority
// inside that group.
func (l *Lineup) GroupOf(stage string) (group, priority int, err error) {
	slot, ok := l.stages[stage]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	return slot.group, slot.priority, nil
}

// DayIndex returns the position of a day label in the festival order.
func (l *Lineup) DayIndex(label string) (int, error) {
	i, ok := l.days[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDay, label)
	}
	return i, nil
}

// Window returns the nominal active window of a day in minutes.
func (l *Lineup) Window(day int, clock timeline.Clock) (interval.Interval, error) {
	d := l.Days[day]
	start, end, err := clock.Span(d.WindowStart, d.WindowEnd)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("day %q window: %w", d.Label, err)
	}
	return interval.Interval{Start: start, End: end}, nil
}

// GroupNames maps group indices to names.
func (l *Lineup) GroupNames(idx []int) []string {
	out := make([]string, len(idx))
	for i, g := range idx {
		out[i] = l.StageGroups[g].Name
	}
	return out
}

// ActiveGroups returns, in column order, the indices of stage groups with at
// least one visible stage. A nil or empty visible set means every stage is
// visible.
func (l *Lineup) ActiveGroups(visible map[string]bool) []int {
	var out []int
	for gi, g := range l.StageGroups {
		for _, s := range g.Stages {
			if len(visible) == 0 || visible[s] {
				out = append(out, gi)
				break
			}
		}
	}
	return out
}
