package ics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

const (
	dateLayout = "2006-01-02"
	productID  = "-//festival-planner//schedule export//EN"
	uidDomain  = "festival-planner"
)

// ErrNoDate is returned when a selected event falls on a day without a
// calendar date.
var ErrNoDate = errors.New("day has no calendar date")

// Exporter renders selected events as an iCalendar document.
type Exporter struct {
	Lineup   *models.Lineup
	Clock    timeline.Clock
	Location *time.Location
	// Now stamps DTSTAMP; defaults to time.Now.
	Now func() time.Time
}

// NewExporter creates an exporter for the lineup in the given zone.
func NewExporter(lineup *models.Lineup, clock timeline.Clock, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{Lineup: lineup, Clock: clock, Location: loc, Now: time.Now}
}

type slot struct {
	ev         models.Event
	start, end time.Time
	group      string
}

// Export builds a VCALENDAR with one VEVENT per selected event, ordered by
// start time. Minute offsets past midnight land on the following calendar
// date.
func (x *Exporter) Export(events []models.Event, selections []models.Selection) (string, error) {
	selected := make(map[string]bool, len(selections))
	for _, s := range selections {
		selected[s.EventID] = true
	}

	var slots []slot
	seen := make(map[string]bool, len(selected))
	for _, ev := range events {
		if !selected[ev.ID] || seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true

		s, err := x.resolve(ev)
		if err != nil {
			return "", fmt.Errorf("event %q: %w", ev.ID, err)
		}
		slots = append(slots, s)
	}
	slices.SortStableFunc(slots, func(a, b slot) int {
		return cmp.Or(a.start.Compare(b.start), cmp.Compare(a.ev.ID, b.ev.ID))
	})

	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	stamp := now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	for _, s := range slots {
		ve := cal.AddEvent(fmt.Sprintf("%s@%s", s.ev.ID, uidDomain))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(s.start)
		ve.SetEndAt(s.end)
		ve.SetSummary(s.ev.Name)
		ve.SetLocation(s.ev.Stage)
		ve.SetDescription(fmt.Sprintf("%s, %s", s.ev.Day, s.group))
	}

	appLog.Debug("ics export completed", "event_count", len(slots))
	return cal.Serialize(), nil
}

func (x *Exporter) resolve(ev models.Event) (slot, error) {
	day, err := x.Lineup.DayIndex(ev.Day)
	if err != nil {
		return slot{}, err
	}
	group, _, err := x.Lineup.GroupOf(ev.Stage)
	if err != nil {
		return slot{}, err
	}
	startMin, endMin, err := x.Clock.Span(ev.Start, ev.End)
	if err != nil {
		return slot{}, err
	}

	d := x.Lineup.Days[day]
	if d.Date == "" {
		return slot{}, fmt.Errorf("%w: %q", ErrNoDate, d.Label)
	}
	date, err := time.ParseInLocation(dateLayout, d.Date, x.Location)
	if err != nil {
		return slot{}, fmt.Errorf("day %q date: %w", d.Label, err)
	}

	return slot{
		ev:    ev,
		start: atMinute(date, startMin, x.Location),
		end:   atMinute(date, endMin, x.Location),
		group: x.Lineup.StageGroups[group].Name,
	}, nil
}

// atMinute returns the wall-clock time minutes after midnight of date.
func atMinute(date time.Time, minutes int, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, minutes, 0, 0, loc)
}
