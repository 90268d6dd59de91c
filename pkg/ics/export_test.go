package ics

import (
	"errors"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

func testExporter(t *testing.T) *Exporter {
	t.Helper()
	lineup, err := models.NewLineup(
		[]models.Day{
			{Label: "Friday", Date: "2026-07-17", WindowStart: "10:00", WindowEnd: "02:00"},
			{Label: "Saturday", WindowStart: "10:00", WindowEnd: "02:00"},
		},
		[]models.StageGroup{
			{Name: "Main", Stages: []string{"M1"}},
			{Name: "Tent", Stages: []string{"T1"}},
		},
	)
	if err != nil {
		t.Fatalf("NewLineup: %v", err)
	}
	x := NewExporter(lineup, timeline.NewClock(timeline.DefaultDayBoundaryHour), time.UTC)
	x.Now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	return x
}

func TestExport_RolloverLandsOnNextDate(t *testing.T) {
	x := testExporter(t)
	events := []models.Event{
		{ID: "late", Name: "Closing Set", Day: "Friday", Stage: "T1", Start: "23:30", End: "01:00"},
		{ID: "early", Name: "Opener", Day: "Friday", Stage: "M1", Start: "14:00", End: "15:00"},
		{ID: "skip", Name: "Not Selected", Day: "Friday", Stage: "M1", Start: "16:00", End: "17:00"},
	}

	out, err := x.Export(events, []models.Selection{{EventID: "late"}, {EventID: "early"}, {EventID: "late"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	vevents := cal.Events()
	if len(vevents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(vevents))
	}

	first, second := vevents[0], vevents[1]
	if got := first.GetProperty(ical.ComponentPropertySummary).Value; got != "Opener" {
		t.Errorf("expected events ordered by start, first is %q", got)
	}
	if got := second.GetProperty(ical.ComponentPropertyUniqueId).Value; got != "late@festival-planner" {
		t.Errorf("unexpected UID %q", got)
	}

	start, err := second.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt: %v", err)
	}
	end, err := second.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt: %v", err)
	}
	if want := time.Date(2026, 7, 17, 23, 30, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 7, 18, 1, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
	if got := second.GetProperty(ical.ComponentPropertyLocation).Value; got != "T1" {
		t.Errorf("expected stage as location, got %q", got)
	}
}

func TestExport_Errors(t *testing.T) {
	x := testExporter(t)

	_, err := x.Export([]models.Event{
		{ID: "a", Name: "A", Day: "Saturday", Stage: "M1", Start: "14:00", End: "15:00"},
	}, []models.Selection{{EventID: "a"}})
	if !errors.Is(err, ErrNoDate) {
		t.Errorf("expected ErrNoDate, got %v", err)
	}

	_, err = x.Export([]models.Event{
		{ID: "b", Name: "B", Day: "Friday", Stage: "nowhere", Start: "14:00", End: "15:00"},
	}, []models.Selection{{EventID: "b"}})
	if !errors.Is(err, models.ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}

	_, err = x.Export([]models.Event{
		{ID: "c", Name: "C", Day: "Friday", Stage: "M1", Start: "25:00", End: "15:00"},
	}, []models.Selection{{EventID: "c"}})
	if !errors.Is(err, timeline.ErrMalformedLabel) {
		t.Errorf("expected ErrMalformedLabel, got %v", err)
	}
}

func TestExport_EmptySelection(t *testing.T) {
	out, err := testExporter(t).Export(nil, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("expected an empty calendar, got %q", out)
	}
}
