package scheduler

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"github.com/arnavshah/festival-planner-go/pkg/interval"
	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

const eps = 1e-9

func testLineup(t *testing.T) *models.Lineup {
	t.Helper()
	lineup, err := models.NewLineup(
		[]models.Day{
			{Label: "Friday", WindowStart: "10:00", WindowEnd: "02:00"},
			{Label: "Saturday", WindowStart: "10:00", WindowEnd: "02:00"},
		},
		[]models.StageGroup{
			{Name: "Main", Stages: []string{"M1", "M2"}},
			{Name: "Tent", Stages: []string{"T1"}},
			{Name: "Club", Stages: []string{"C1"}},
			{Name: "Forest", Stages: []string{"F1"}},
		},
	)
	if err != nil {
		t.Fatalf("NewLineup: %v", err)
	}
	return lineup
}

func ev(id, stage, start, end string) models.Event {
	return models.Event{ID: id, Name: "Act " + id, Day: "Friday", Stage: stage, Start: start, End: end}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func byID(day models.DayLayout) map[string]models.PositionedEvent {
	out := make(map[string]models.PositionedEvent, len(day.Events))
	for _, p := range day.Events {
		out[p.ID] = p
	}
	return out
}

// checkGeometry asserts the horizontal invariants of a day layout.
func checkGeometry(t *testing.T, day models.DayLayout) {
	t.Helper()
	for i, a := range day.Events {
		if a.WidthPct <= 0 {
			t.Errorf("%s: width %v must be positive", a.ID, a.WidthPct)
		}
		if a.LeftPct < -eps || a.LeftPct+a.WidthPct > 100+eps {
			t.Errorf("%s: range [%v, %v) outside 0..100", a.ID, a.LeftPct, a.LeftPct+a.WidthPct)
		}
		for _, b := range day.Events[i+1:] {
			ia := interval.Interval{Start: a.StartMin, End: a.EndMin}
			ib := interval.Interval{Start: b.StartMin, End: b.EndMin}
			if !interval.Overlaps(ia, ib) {
				continue
			}
			if a.LeftPct < b.LeftPct+b.WidthPct-eps && b.LeftPct < a.LeftPct+a.WidthPct-eps {
				t.Errorf("%s [%v,%v) and %s [%v,%v) overlap in time and space",
					a.ID, a.LeftPct, a.LeftPct+a.WidthPct, b.ID, b.LeftPct, b.LeftPct+b.WidthPct)
			}
		}
	}
}

func randomEvents(seed int64, n int) []models.Event {
	r := rand.New(rand.NewSource(seed))
	stages := []string{"M1", "M2", "T1", "C1", "F1"}
	days := []string{"Friday", "Saturday"}
	events := make([]models.Event, n)
	for i := range events {
		start := 600 + 5*r.Intn(180)
		end := start + 20 + 5*r.Intn(15)
		events[i] = models.Event{
			ID:    fmt.Sprintf("e%03d", i),
			Name:  fmt.Sprintf("Act %d", i),
			Day:   days[r.Intn(len(days))],
			Stage: stages[r.Intn(len(stages))],
			Start: timeline.Format(start, timeline.StyleColon),
			End:   timeline.Format(end, timeline.StyleH),
		}
	}
	return events
}

func TestLayout_NoVisualOverlap(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())

	for seed := int64(1); seed <= 20; seed++ {
		events := randomEvents(seed, 60)
		for _, opts := range []LayoutOptions{
			{Mode: models.FilterAll},
			{Mode: models.FilterAll, Reverse: true},
			{Mode: models.FilterAll, VisibleStages: []string{"M1", "T1", "F1"}},
			{Mode: models.FilterFavorites, Selected: ids(events)},
			{Mode: models.FilterFavorites, Selected: ids(events[:25]), Reverse: true},
		} {
			resp, err := s.Layout(events, opts)
			if err != nil {
				t.Fatalf("seed %d: Layout returned error: %v", seed, err)
			}
			for _, day := range resp.Days {
				checkGeometry(t, day)
			}
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := randomEvents(42, 80)

	for _, opts := range []LayoutOptions{
		{Mode: models.FilterAll},
		{Mode: models.FilterFavorites, Selected: ids(events)},
	} {
		first, err := s.Layout(events, opts)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		second, err := s.Layout(events, opts)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected identical layouts for identical input in mode %s", opts.Mode)
		}
	}
}

func TestLayout_AllModeColumnsWithoutOverlap(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{
		ev("a", "M1", "12:00", "13:00"),
		ev("b", "T1", "14:00", "15:00"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterAll, VisibleStages: []string{"M1", "T1"}})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(resp.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(resp.Days))
	}
	got := byID(resp.Days[0])

	// two active columns of 50%, each lane capped at 33% and centred
	if a := got["a"]; math.Abs(a.WidthPct-33) > eps || math.Abs(a.LeftPct-8.5) > eps {
		t.Errorf("a: expected left 8.5 width 33, got left %v width %v", a.LeftPct, a.WidthPct)
	}
	if b := got["b"]; math.Abs(b.WidthPct-33) > eps || math.Abs(b.LeftPct-58.5) > eps {
		t.Errorf("b: expected left 58.5 width 33, got left %v width %v", b.LeftPct, b.WidthPct)
	}
}

func TestLayout_AllModeSplitsColumnForClash(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{
		ev("a", "M1", "20:00", "21:00"),
		ev("b", "M2", "20:30", "21:30"),
		ev("c", "T1", "20:00", "21:00"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterAll})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	got := byID(resp.Days[0])

	// four groups are active, so each column is 25% and each of the two lanes 12.5%
	if got["a"].Columns != 2 || got["b"].Columns != 2 || got["c"].Columns != 1 {
		t.Fatalf("unexpected column counts a=%d b=%d c=%d", got["a"].Columns, got["b"].Columns, got["c"].Columns)
	}
	if got["a"].Lane != 0 || got["b"].Lane != 1 {
		t.Errorf("expected M1 before M2, got lanes a=%d b=%d", got["a"].Lane, got["b"].Lane)
	}
	if math.Abs(got["b"].LeftPct-12.5) > eps || math.Abs(got["b"].WidthPct-12.5) > eps {
		t.Errorf("b: expected left 12.5 width 12.5, got left %v width %v", got["b"].LeftPct, got["b"].WidthPct)
	}
	if math.Abs(got["c"].LeftPct-25) > eps || math.Abs(got["c"].WidthPct-25) > eps {
		t.Errorf("c: expected left 25 width 25, got left %v width %v", got["c"].LeftPct, got["c"].WidthPct)
	}
	checkGeometry(t, resp.Days[0])
}

func TestLayout_FavoritesSingleEventIsCapped(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{ev("solo", "C1", "18:00", "19:00")}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterFavorites, Selected: []string{"solo"}})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	p := resp.Days[0].Events[0]
	if p.WidthPct != 50 || p.LeftPct != 25 {
		t.Errorf("expected centred 50%% event, got left %v width %v", p.LeftPct, p.WidthPct)
	}
	if !slices.Equal(p.Context, []string{"Club"}) {
		t.Errorf("expected context [Club], got %v", p.Context)
	}
}

func TestLayout_FavoritesSandwich(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{
		ev("a", "M1", "12:00", "13:00"),
		ev("x", "T1", "12:30", "14:00"),
		ev("c", "C1", "13:30", "14:30"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterFavorites, Selected: ids(events)})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	day := resp.Days[0]
	if !day.Converged {
		t.Errorf("expected propagation to converge")
	}
	got := byID(day)

	x := got["x"]
	if !slices.Equal(x.Context, []string{"Main", "Tent", "Club"}) {
		t.Errorf("expected x context [Main Tent Club], got %v", x.Context)
	}
	for _, id := range []string{"a", "x", "c"} {
		if got[id].Columns != 3 {
			t.Errorf("%s: expected 3 columns, got %d", id, got[id].Columns)
		}
		if math.Abs(got[id].WidthPct-100.0/3) > eps {
			t.Errorf("%s: expected width 33.33, got %v", id, got[id].WidthPct)
		}
	}
	checkGeometry(t, day)
}

func TestLayout_PropagationCapIsReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPropagationRounds = 1
	s := NewScheduler(testLineup(t), cfg)
	events := []models.Event{
		ev("a", "M1", "12:00", "13:00"),
		ev("x", "T1", "12:30", "14:00"),
		ev("c", "C1", "13:30", "14:30"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterFavorites, Selected: ids(events)})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if resp.Days[0].Converged {
		t.Errorf("expected the one-round cap to be reported as not converged")
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", resp.Warnings)
	}
	checkGeometry(t, resp.Days[0])
}

func TestLayout_TooManySimultaneousEvents(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())

	var events []models.Event
	for i := 0; i <= DefaultMaxLanes; i++ {
		events = append(events, ev(fmt.Sprintf("p%02d", i), "F1", "20:00", "21:00"))
	}

	_, err := s.Layout(events, LayoutOptions{Mode: models.FilterAll})
	if !errors.Is(err, ErrTooManySimultaneousEvents) {
		t.Fatalf("expected ErrTooManySimultaneousEvents, got %v", err)
	}
	var tooMany *TooManySimultaneousEventsError
	if !errors.As(err, &tooMany) || tooMany.EventID != "p50" || tooMany.Limit != DefaultMaxLanes {
		t.Errorf("unexpected error details: %+v", tooMany)
	}

	// one fewer fits exactly
	if _, err := s.Layout(events[:DefaultMaxLanes], LayoutOptions{Mode: models.FilterAll}); err != nil {
		t.Errorf("expected %d simultaneous events to fit, got %v", DefaultMaxLanes, err)
	}
}

func TestLayout_InputErrors(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())

	_, err := s.Layout([]models.Event{ev("bad", "M1", "25:99", "26:00")}, LayoutOptions{})
	if !errors.Is(err, timeline.ErrMalformedLabel) {
		t.Errorf("expected parse error, got %v", err)
	}

	_, err = s.Layout([]models.Event{ev("missing", "M1", "", "20:00")}, LayoutOptions{})
	if !errors.Is(err, timeline.ErrMalformedLabel) {
		t.Errorf("expected empty label to fail, got %v", err)
	}

	_, err = s.Layout([]models.Event{ev("nowhere", "Moon", "20:00", "21:00")}, LayoutOptions{})
	if !errors.Is(err, models.ErrUnknownStage) {
		t.Errorf("expected unknown stage error, got %v", err)
	}

	odd := ev("odd", "M1", "20:00", "21:00")
	odd.Day = "Monday"
	_, err = s.Layout([]models.Event{odd}, LayoutOptions{})
	if !errors.Is(err, models.ErrUnknownDay) {
		t.Errorf("expected unknown day error, got %v", err)
	}

	_, err = s.Layout(nil, LayoutOptions{Mode: "timeline"})
	if !errors.Is(err, ErrUnknownFilterMode) {
		t.Errorf("expected unknown mode error, got %v", err)
	}
}

func TestLayout_EmptyInput(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())

	resp, err := s.Layout(nil, LayoutOptions{Mode: models.FilterFavorites})
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if len(resp.Days) != 0 {
		t.Errorf("expected no days, got %d", len(resp.Days))
	}

	// favorites without selection lays out nothing
	resp, err = s.Layout([]models.Event{ev("a", "M1", "20:00", "21:00")}, LayoutOptions{Mode: models.FilterFavorites})
	if err != nil || len(resp.Days) != 0 {
		t.Errorf("expected empty layout, got %+v, %v", resp, err)
	}
}

func TestLayout_VerticalAxis(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{
		ev("early", "M1", "10:30", "11:30"),
		ev("short", "T1", "12:00", "12:05"),
		ev("late", "C1", "01:00", "02:00"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterAll, Scale: 2})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	got := byID(resp.Days[0])
	if got["early"].Top != 60 || got["early"].Height != 120 {
		t.Errorf("early: got top %v height %v", got["early"].Top, got["early"].Height)
	}
	if got["short"].Height != timeline.DefaultMinHeight {
		t.Errorf("short: expected min height, got %v", got["short"].Height)
	}
	if got["late"].StartMin != 1500 || got["late"].Top != 1800 {
		t.Errorf("late: expected start 1500 top 1800, got %d %v", got["late"].StartMin, got["late"].Top)
	}

	resp, err = s.Layout(events, LayoutOptions{Mode: models.FilterAll, Scale: 2, Reverse: true, MaxHeight: 2000})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	got = byID(resp.Days[0])
	if got["early"].Top != 2000-(60+120) {
		t.Errorf("reversed early: expected top 1820, got %v", got["early"].Top)
	}

	// output follows screen order, so the latest act comes first when reversed
	var order []string
	for _, p := range resp.Days[0].Events {
		order = append(order, p.ID)
	}
	if !slices.Equal(order, []string{"late", "short", "early"}) {
		t.Errorf("reversed order: got %v", order)
	}
}

func TestLayout_VisibleStagesFilter(t *testing.T) {
	s := NewScheduler(testLineup(t), DefaultConfig())
	events := []models.Event{
		ev("a", "M1", "20:00", "21:00"),
		ev("b", "T1", "20:00", "21:00"),
	}

	resp, err := s.Layout(events, LayoutOptions{Mode: models.FilterAll, VisibleStages: []string{"T1"}})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	day := resp.Days[0]
	if len(day.Events) != 1 || day.Events[0].ID != "b" {
		t.Fatalf("expected only b to be visible, got %+v", day.Events)
	}
	// single active column spans the whole width
	if math.Abs(day.Events[0].LeftPct-33.5) > eps {
		t.Errorf("expected centred lane at 33.5, got %v", day.Events[0].LeftPct)
	}
}
