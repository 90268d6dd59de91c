package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/interval"
	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

const (
	// DefaultMinClashMinutes filters out boundary artifacts shorter than this.
	DefaultMinClashMinutes = 10
	// DefaultTransitionMinutes is the walking time between two consecutive acts.
	DefaultTransitionMinutes = 15
)

// Config holds the aggregation parameters
type Config struct {
	DayBoundaryHour   int
	MinClashMinutes   int
	TransitionMinutes int
}

// DefaultConfig returns the aggregation parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		DayBoundaryHour:   timeline.DefaultDayBoundaryHour,
		MinClashMinutes:   DefaultMinClashMinutes,
		TransitionMinutes: DefaultTransitionMinutes,
	}
}

// Aggregator turns a user's selection into clash segments and day statistics.
// It holds only configuration and is safe for concurrent use.
type Aggregator struct {
	Lineup *models.Lineup
	Clock  timeline.Clock
	Config Config
}

// NewAggregator creates a new aggregator instance
func NewAggregator(lineup *models.Lineup, cfg Config) *Aggregator {
	if cfg.DayBoundaryHour <= 0 {
		cfg.DayBoundaryHour = timeline.DefaultDayBoundaryHour
	}
	if cfg.MinClashMinutes <= 0 {
		cfg.MinClashMinutes = DefaultMinClashMinutes
	}
	if cfg.TransitionMinutes < 0 {
		cfg.TransitionMinutes = DefaultTransitionMinutes
	}
	return &Aggregator{
		Lineup: lineup,
		Clock:  timeline.NewClock(cfg.DayBoundaryHour),
		Config: cfg,
	}
}

// entry is a selected event on the minute scale.
type entry struct {
	id   string
	name string
	iv   interval.Interval
}

// Summarize computes clashes and day statistics for the selected events whose
// interest weight is at least minInterest. No selection yields a zero summary.
func (a *Aggregator) Summarize(events []models.Event, selections []models.Selection, minInterest int) (models.Summary, error) {
	summary := models.Summary{
		Days:    []models.DayStats{},
		Clashes: []models.ClashSegment{},
		Rank:    RankFor(0),
	}

	weights := make(map[string]int, len(selections))
	for _, sel := range selections {
		weights[sel.EventID] = max(weights[sel.EventID], sel.Weight())
	}

	byDay := make([][]entry, len(a.Lineup.Days))
	seen := make(map[string]bool, len(weights))
	known := make(map[string]bool, len(events))
	for _, ev := range events {
		known[ev.ID] = true
		w, ok := weights[ev.ID]
		if !ok || w < minInterest || seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true

		day, err := a.Lineup.DayIndex(ev.Day)
		if err != nil {
			return summary, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		start, end, err := a.Clock.Span(ev.Start, ev.End)
		if err != nil {
			return summary, fmt.Errorf("event %q: %w", ev.ID, err)
		}
		byDay[day] = append(byDay[day], entry{
			id:   ev.ID,
			name: ev.Name,
			iv:   interval.Interval{Start: start, End: end},
		})
	}
	for id := range weights {
		if !known[id] {
			appLog.Debug("stats: selection without matching event", "event_id", id)
		}
	}

	var completionSum int
	for day, entries := range byDay {
		if len(entries) == 0 {
			continue
		}
		label := a.Lineup.Days[day].Label
		window, err := a.Lineup.Window(day, a.Clock)
		if err != nil {
			return summary, err
		}

		clashes := findClashes(label, entries, a.Config.MinClashMinutes)
		ds := a.dayStats(label, entries, len(clashes), window.Len())

		summary.Clashes = append(summary.Clashes, clashes...)
		summary.Days = append(summary.Days, ds)
		summary.TotalEvents += ds.EventCount
		summary.TotalBusyMinutes += ds.BusyMinutes
		completionSum += ds.CompletionRate
	}

	if n := len(summary.Days); n > 0 {
		summary.AverageCompletion = round(float64(completionSum)/float64(n), 2)
		summary.Rank = RankFor(summary.AverageCompletion)
	}
	return summary, nil
}

func (a *Aggregator) dayStats(label string, entries []entry, clashCount, window int) models.DayStats {
	ivs := make([]interval.Interval, len(entries))
	for i, e := range entries {
		ivs[i] = e.iv
	}
	busy := interval.Total(interval.Merge(ivs))

	transitions := max(0, len(entries)-1-clashCount)
	penalty := transitions * a.Config.TransitionMinutes
	free := max(0, window-busy-penalty)

	completion := 0
	if window > 0 {
		completion = int(math.Round(100 * float64(window-free) / float64(window)))
		completion = min(100, max(0, completion))
	}

	return models.DayStats{
		Day:               label,
		EventCount:        len(entries),
		ClashCount:        clashCount,
		BusyMinutes:       busy,
		TransitionMinutes: penalty,
		FreeMinutes:       free,
		WindowMinutes:     window,
		CompletionRate:    completion,
		Persona:           PersonaFor(completion),
	}
}

// findClashes scans a day's entries in time order and emits every maximal
// span where the same set of at least two entries is active for at least
// minMinutes. The active set only changes at entry boundaries, so the sweep
// visits boundaries instead of single minutes.
func findClashes(day string, entries []entry, minMinutes int) []models.ClashSegment {
	var bounds []int
	for _, e := range entries {
		bounds = append(bounds, e.iv.Start, e.iv.End)
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	var (
		out      []models.ClashSegment
		curStart int
		curSet   []entry
		curSig   string
	)
	flush := func(end int) {
		if len(curSet) >= 2 && end-curStart >= minMinutes {
			out = append(out, segment(day, curStart, end, curSet))
		}
	}

	for k := 0; k+1 < len(bounds); k++ {
		t := bounds[k]
		var active []entry
		for _, e := range entries {
			if e.iv.Contains(t) {
				active = append(active, e)
			}
		}
		sig := signature(active)
		if k > 0 && sig == curSig {
			continue
		}
		if k > 0 {
			flush(t)
		}
		curStart, curSet, curSig = t, active, sig
	}
	if len(bounds) > 0 {
		flush(bounds[len(bounds)-1])
	}
	return out
}

func segment(day string, start, end int, set []entry) models.ClashSegment {
	members := make([]models.ClashEvent, len(set))
	for i, e := range set {
		members[i] = models.ClashEvent{ID: e.id, Name: e.name}
	}
	slices.SortFunc(members, func(a, b models.ClashEvent) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return models.ClashSegment{
		Day:        day,
		Start:      start,
		End:        end,
		StartLabel: timeline.Format(start, timeline.StyleColon),
		EndLabel:   timeline.Format(end, timeline.StyleColon),
		Level:      len(set),
		Events:     members,
	}
}

// signature is the sorted id list of an active set.
func signature(set []entry) string {
	ids := make([]string, len(set))
	for i, e := range set {
		ids[i] = e.id
	}
	slices.Sort(ids)
	return strings.Join(ids, "\x00")
}

// PersonaFor labels a day's intensity from its completion rate.
func PersonaFor(completion int) string {
	switch {
	case completion < 30:
		return "Chill"
	case completion < 60:
		return "Balanced"
	case completion < 90:
		return "Intense"
	default:
		return "No Sleep"
	}
}

// RankFor maps the average completion across active days onto a tier.
func RankFor(avg float64) string {
	switch {
	case avg < 30:
		return "Rookie"
	case avg < 60:
		return "Regular"
	case avg < 90:
		return "Veteran"
	default:
		return "Legend"
	}
}

func round(value float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}
