package calendar

import (
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

// EventTime is an event boundary: either a timestamped instant (DateTime,
// RFC 3339) or an all-day civil date (Date, YYYY-MM-DD). The JSON shape
// mirrors the Google Calendar wire format so event lists round-trip
// verbatim through the HTTP API.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IsZero reports whether neither a timestamp nor a date is populated.
func (t EventTime) IsZero() bool {
	return t.DateTime == "" && t.Date == ""
}

// When resolves the boundary to a point in time in loc. All-day dates are
// anchored at midnight in loc so that the civil date is preserved
// regardless of the local UTC offset. The second return value is false
// when the boundary is empty or unparseable.
func (t EventTime) When(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return ts.In(loc), true
	}
	if t.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", t.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	return time.Time{}, false
}

// Attendee is an invited participant, identified by email.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Event is a calendar event in the adapter's wire shape. The ID is
// assigned by the remote service and is empty until the event has been
// created.
type Event struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

// StartDate derives the event's effective calendar date in loc: the local
// date of the timestamped start if present, else the all-day date. Events
// with neither are unplaced and return ok=false.
func (e *Event) StartDate(loc *time.Location) (date time.Time, ok bool) {
	if e.Start == nil {
		return time.Time{}, false
	}
	ts, ok := e.Start.When(loc)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location()), true
}

// Validate checks the minimal schema required before an event body is
// forwarded to the remote service: a summary, a start boundary, and
// start not after end when both resolve. Anything subtler is left to the
// remote service to reject.
func (e *Event) Validate() error {
	if e.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if e.Start == nil || e.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if e.End == nil || e.End.IsZero() {
		return fmt.Errorf("end is required")
	}
	start, okStart := e.Start.When(time.UTC)
	end, okEnd := e.End.When(time.UTC)
	if !okStart {
		return fmt.Errorf("start is not a valid RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if !okEnd {
		return fmt.Errorf("end is not a valid RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if start.After(end) {
		return fmt.Errorf("start must not be after end")
	}
	return nil
}

// CalendarInfo describes one entry of the user's calendar list.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	Primary     bool   `json:"primary,omitempty"`
	AccessRole  string `json:"accessRole,omitempty"`
}

// toEvent converts a Google Calendar event to the adapter's Event type.
func toEvent(ev *gcal.Event) Event {
	if ev == nil {
		return Event{}
	}

	result := Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      ev.Status,
	}

	if ev.Start != nil {
		result.Start = &EventTime{
			DateTime: ev.Start.DateTime,
			Date:     ev.Start.Date,
			TimeZone: ev.Start.TimeZone,
		}
	}
	if ev.End != nil {
		result.End = &EventTime{
			DateTime: ev.End.DateTime,
			Date:     ev.End.Date,
			TimeZone: ev.End.TimeZone,
		}
	}

	for _, att := range ev.Attendees {
		result.Attendees = append(result.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
		})
	}

	return result
}

// toGoogleEvent converts an adapter Event into the Google Calendar
// request body.
func toGoogleEvent(ev Event) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
	}

	if ev.Start != nil {
		out.Start = &gcal.EventDateTime{
			DateTime: ev.Start.DateTime,
			Date:     ev.Start.Date,
			TimeZone: ev.Start.TimeZone,
		}
	}
	if ev.End != nil {
		out.End = &gcal.EventDateTime{
			DateTime: ev.End.DateTime,
			Date:     ev.End.Date,
			TimeZone: ev.End.TimeZone,
		}
	}

	if len(ev.Attendees) > 0 {
		var attendees []*gcal.EventAttendee
		for _, att := range ev.Attendees {
			attendees = append(attendees, &gcal.EventAttendee{
				Email:       att.Email,
				DisplayName: att.DisplayName,
			})
		}
		out.Attendees = attendees
	}

	return out
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo.
func toCalendarInfo(entry *gcal.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}
