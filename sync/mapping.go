// ABOUTME: Conversion between calendar events and tasks
// ABOUTME: Times are shown as HH:MM in one configured location with the zone dropped
package sync

import (
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/bizcrm/models"
)

const (
	clockLayout   = "15:04"
	untitledEvent = "(No title)"
)

// shouldSkipEvent determines if an event should be skipped during import.
// Returns (true, reason) if the event should be skipped, (false, "") otherwise.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil event"
	}
	if event.Id == "" {
		return true, "missing id"
	}
	if event.Start == nil || (event.Start.Date == "" && event.Start.DateTime == "") {
		return true, "missing start time"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}
	return false, ""
}

// eventFields holds the task fields an event controls.
type eventFields struct {
	Title     string
	DueDate   string
	StartTime string
	EndTime   string
	IsAllDay  bool
}

// fieldsFromEvent maps an event onto task fields in loc.
func fieldsFromEvent(ev *calendar.Event, loc *time.Location) (eventFields, error) {
	f := eventFields{Title: ev.Summary}
	if f.Title == "" {
		f.Title = untitledEvent
	}

	if ev.Start.DateTime == "" {
		f.IsAllDay = true
		f.DueDate = ev.Start.Date
		return f, nil
	}

	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return f, fmt.Errorf("invalid start %q: %w", ev.Start.DateTime, err)
	}
	start = start.In(loc)
	f.DueDate = start.Format(time.DateOnly)
	f.StartTime = start.Format(clockLayout)

	if ev.End != nil && ev.End.DateTime != "" {
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return f, fmt.Errorf("invalid end %q: %w", ev.End.DateTime, err)
		}
		f.EndTime = end.In(loc).Format(clockLayout)
	}
	return f, nil
}

// differs compares the fields a pull reconciles: date, title and start time.
func (f eventFields) differs(t models.Task) bool {
	return t.DueDate != f.DueDate || t.Title != f.Title || t.StartTime != f.StartTime
}

func (f eventFields) applyTo(t *models.Task) {
	t.Title = f.Title
	t.DueDate = f.DueDate
	t.StartTime = f.StartTime
	t.EndTime = f.EndTime
	t.IsAllDay = f.IsAllDay
}

// eventUpdated parses the provider's last-modified stamp; zero if absent.
func eventUpdated(ev *calendar.Event) time.Time {
	t, err := time.Parse(time.RFC3339, ev.Updated)
	if err != nil {
		return time.Time{}
	}
	return t
}

// eventFromTask builds the event pushed for a new task. Timed tasks default
// to one hour; all-day tasks end the next day as the API requires.
func eventFromTask(t models.Task, loc *time.Location) (*calendar.Event, error) {
	if t.DueDate == "" {
		return nil, fmt.Errorf("task has no due date")
	}
	day, err := time.ParseInLocation(time.DateOnly, t.DueDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", t.DueDate, err)
	}

	ev := &calendar.Event{Summary: t.Title}

	if !t.Timed() {
		ev.Start = &calendar.EventDateTime{Date: day.Format(time.DateOnly)}
		ev.End = &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(time.DateOnly)}
		return ev, nil
	}

	start, err := atClock(day, t.StartTime, loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Hour)
	if t.EndTime != "" {
		e, err := atClock(day, t.EndTime, loc)
		if err != nil {
			return nil, err
		}
		if e.After(start) {
			end = e
		}
	}

	ev.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)}
	ev.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)}
	return ev, nil
}

func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	c, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}
