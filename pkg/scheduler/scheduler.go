package scheduler

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/interval"
	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

// ErrPropagationCap is logged when context propagation stops before
// reaching a fixed point.
var ErrPropagationCap = errors.New("context propagation hit round cap")

// ErrUnknownFilterMode is returned for a mode other than all or favorites.
var ErrUnknownFilterMode = errors.New("unknown filter mode")

// Config holds the tunable layout parameters
type Config struct {
	DayBoundaryHour      int
	MaxLanes             int
	MaxPropagationRounds int
	MaxFavoriteWidthPct  float64
	MaxColumnWidthPct    float64
	MinHeight            float64
	Scale                float64
}

// DefaultConfig returns the layout parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		DayBoundaryHour:      timeline.DefaultDayBoundaryHour,
		MaxLanes:             DefaultMaxLanes,
		MaxPropagationRounds: DefaultMaxPropagationRounds,
		MaxFavoriteWidthPct:  DefaultMaxFavoriteWidthPct,
		MaxColumnWidthPct:    DefaultMaxColumnWidthPct,
		MinHeight:            timeline.DefaultMinHeight,
		Scale:                1,
	}
}

// LayoutOptions is the per-call snapshot of UI state driving a layout
type LayoutOptions struct {
	Mode          models.FilterMode
	VisibleStages []string
	// Selected holds event ids; only used in favorites mode.
	Selected  []string
	Reverse   bool
	Scale     float64
	MaxHeight float64
}

// Scheduler computes render geometry for a festival lineup. It holds only
// configuration and is safe for concurrent use.
type Scheduler struct {
	Lineup *models.Lineup
	Clock  timeline.Clock
	Config Config
}

// NewScheduler creates a new scheduler instance
func NewScheduler(lineup *models.Lineup, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.DayBoundaryHour <= 0 {
		cfg.DayBoundaryHour = def.DayBoundaryHour
	}
	if cfg.MaxLanes <= 0 {
		cfg.MaxLanes = def.MaxLanes
	}
	if cfg.MaxPropagationRounds <= 0 {
		cfg.MaxPropagationRounds = def.MaxPropagationRounds
	}
	if cfg.MaxFavoriteWidthPct <= 0 {
		cfg.MaxFavoriteWidthPct = def.MaxFavoriteWidthPct
	}
	if cfg.MaxColumnWidthPct <= 0 {
		cfg.MaxColumnWidthPct = def.MaxColumnWidthPct
	}
	if cfg.MinHeight < 0 {
		cfg.MinHeight = def.MinHeight
	}
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	return &Scheduler{
		Lineup: lineup,
		Clock:  timeline.NewClock(cfg.DayBoundaryHour),
		Config: cfg,
	}
}

// item is an event normalized onto the minute scale.
type item struct {
	ev       models.Event
	pos      int
	day      int
	group    int
	priority int
	iv       interval.Interval
}

// normalize parses and classifies events. The first malformed event aborts.
func (s *Scheduler) normalize(events []models.Event) ([]item, error) {
	items := make([]item, 0, len(events))
	for pos, ev := range events {
		day, err := s.Lineup.DayIndex(ev.Day)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		group, priority, err := s.Lineup.GroupOf(ev.Stage)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		start, end, err := s.Clock.Span(ev.Start, ev.End)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		items = append(items, item{
			ev:       ev,
			pos:      pos,
			day:      day,
			group:    group,
			priority: priority,
			iv:       interval.Interval{Start: start, End: end},
		})
	}
	return items, nil
}

// Layout positions events for every lineup day that has any.
func (s *Scheduler) Layout(events []models.Event, opts LayoutOptions) (models.LayoutResponse, error) {
	resp := models.LayoutResponse{Days: []models.DayLayout{}}

	items, err := s.normalize(events)
	if err != nil {
		return resp, err
	}

	visible := toSet(opts.VisibleStages)
	selected := toSet(opts.Selected)
	mode := opts.Mode
	switch mode {
	case "":
		mode = models.FilterAll
	case models.FilterAll, models.FilterFavorites:
	default:
		return resp, fmt.Errorf("%w: %q", ErrUnknownFilterMode, mode)
	}

	byDay := make([][]item, len(s.Lineup.Days))
	for _, it := range items {
		if len(visible) > 0 && !visible[it.ev.Stage] {
			continue
		}
		if mode == models.FilterFavorites && !selected[it.ev.ID] {
			continue
		}
		byDay[it.day] = append(byDay[it.day], it)
	}

	for day, dayItems := range byDay {
		if len(dayItems) == 0 {
			continue
		}
		label := s.Lineup.Days[day].Label

		axis, origin, err := s.dayAxis(day, dayItems, opts)
		if err != nil {
			return resp, err
		}

		var (
			placed    []models.PositionedEvent
			converged = true
		)
		switch mode {
		case models.FilterFavorites:
			placed, converged, err = s.layoutFavorites(dayItems, opts.Reverse)
		case models.FilterAll:
			placed, err = s.layoutColumns(dayItems, visible, opts.Reverse)
		}
		if err != nil {
			return resp, err
		}

		for i := range placed {
			iv := interval.Interval{Start: placed[i].StartMin, End: placed[i].EndMin}
			placed[i].Top, placed[i].Height = verticalPlace(axis, origin, iv)
		}
		slices.SortFunc(placed, func(a, b models.PositionedEvent) int {
			return cmp.Or(
				cmp.Compare(a.Top, b.Top),
				cmp.Compare(a.LeftPct, b.LeftPct),
				cmp.Compare(a.ID, b.ID),
			)
		})

		if !converged {
			appLog.Error("layout: context propagation did not stabilize", ErrPropagationCap,
				"day", label,
				"rounds", s.Config.MaxPropagationRounds,
				"events", len(dayItems),
			)
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%s: column contexts did not stabilize within %d rounds", label, s.Config.MaxPropagationRounds))
		}

		resp.Days = append(resp.Days, models.DayLayout{
			Day:       label,
			Events:    placed,
			Converged: converged,
		})
	}
	return resp, nil
}

// dayAxis builds the vertical axis for a day. The origin is the window start,
// or the earliest event if one starts before the window.
func (s *Scheduler) dayAxis(day int, items []item, opts LayoutOptions) (timeline.Axis, int, error) {
	window, err := s.Lineup.Window(day, s.Clock)
	if err != nil {
		return timeline.Axis{}, 0, err
	}
	origin, end := window.Start, window.End
	for _, it := range items {
		origin = min(origin, it.iv.Start)
		end = max(end, it.iv.End)
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = s.Config.Scale
	}
	maxHeight := opts.MaxHeight
	if maxHeight <= 0 {
		maxHeight = float64(end-origin) * scale
	}
	return timeline.Axis{
		Scale:     scale,
		MaxHeight: maxHeight,
		MinHeight: s.Config.MinHeight,
		Reverse:   opts.Reverse,
	}, origin, nil
}

// layoutFavorites pools a day's events across stages. Column counts come from
// the greedy lanes and the stage-group contexts of each overlap cluster.
func (s *Scheduler) layoutFavorites(items []item, reverse bool) ([]models.PositionedEvent, bool, error) {
	ivs := make([]interval.Interval, len(items))
	groups := make([]int, len(items))
	for i, it := range items {
		ivs[i] = it.iv
		groups[i] = it.group
	}
	ix := interval.NewIndex(ivs)

	order := sortedOrder(items, reverse, false)
	lanes, err := assignLanes(items, order, ix, s.Config.MaxLanes)
	if err != nil {
		return nil, false, err
	}

	ctx := buildContexts(groups, ix, s.Config.MaxPropagationRounds)
	columns := clusterColumns(ix, func(i int) int {
		return max(lanes[i]+1, len(ctx.sets[i]))
	})

	out := make([]models.PositionedEvent, len(items))
	for i, it := range items {
		left, width := spread(lanes[i], columns[i], 0, 100, s.Config.MaxFavoriteWidthPct)
		out[i] = s.positioned(it, lanes[i], columns[i], left, width)
		out[i].Context = s.Lineup.GroupNames(ctx.sets[i])
	}
	return out, ctx.converged, nil
}

// layoutColumns gives every active stage group an equal column and lays out
// lanes independently inside each.
func (s *Scheduler) layoutColumns(items []item, visible map[string]bool, reverse bool) ([]models.PositionedEvent, error) {
	active := s.Lineup.ActiveGroups(visible)
	if len(active) == 0 {
		return nil, nil
	}
	colWidth := 100 / float64(len(active))

	buckets := make(map[int][]item, len(active))
	for _, it := range items {
		buckets[it.group] = append(buckets[it.group], it)
	}

	out := make([]models.PositionedEvent, 0, len(items))
	for col, g := range active {
		bucket := buckets[g]
		if len(bucket) == 0 {
			continue
		}
		ivs := make([]interval.Interval, len(bucket))
		for i, it := range bucket {
			ivs[i] = it.iv
		}
		ix := interval.NewIndex(ivs)

		order := sortedOrder(bucket, reverse, true)
		lanes, err := assignLanes(bucket, order, ix, s.Config.MaxLanes)
		if err != nil {
			return nil, err
		}
		columns := clusterColumns(ix, func(i int) int { return lanes[i] + 1 })

		offset := float64(col) * colWidth
		for i, it := range bucket {
			left, width := spread(lanes[i], columns[i], offset, colWidth, s.Config.MaxColumnWidthPct)
			out = append(out, s.positioned(it, lanes[i], columns[i], left, width))
		}
	}
	return out, nil
}

func (s *Scheduler) positioned(it item, lane, columns int, left, width float64) models.PositionedEvent {
	return models.PositionedEvent{
		Event:    it.ev,
		StartMin: it.iv.Start,
		EndMin:   it.iv.End,
		Group:    s.Lineup.StageGroups[it.group].Name,
		Lane:     lane,
		Columns:  columns,
		LeftPct:  left,
		WidthPct: width,
	}
}

// sortedOrder returns item positions ordered by start time (descending when
// reverse), optionally preceded by stage priority. Ties keep input order.
func sortedOrder(items []item, reverse, byPriority bool) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ia, ib := items[a], items[b]
		if byPriority {
			if c := cmp.Compare(ia.priority, ib.priority); c != 0 {
				return c
			}
		}
		c := cmp.Compare(ia.iv.Start, ib.iv.Start)
		if reverse {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(ia.pos, ib.pos))
	})
	return order
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
