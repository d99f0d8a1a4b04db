// Package calendartest provides an in-memory calendar.Service for tests.
package calendartest

import (
	"context"
	"fmt"
	"sync"

	"calview/internal/calendar"
)

// Fake is an in-memory calendar.Service. Events live in a single slice in
// insertion order; IDs are assigned sequentially. Every method honors the
// injected error fields, which lets tests simulate upstream failures
// without touching the network.
type Fake struct {
	mu     sync.Mutex
	nextID int
	events []calendar.Event

	// Calendars returned by ListCalendars.
	Calendars []calendar.CalendarInfo

	// Err, when set, is returned by every operation.
	Err error

	// Calls counts remote operations by name ("listEvents", "createEvent", ...).
	Calls map[string]int
}

var _ calendar.Service = (*Fake)(nil)

// New returns an empty Fake with a primary calendar descriptor.
func New() *Fake {
	return &Fake{
		Calendars: []calendar.CalendarInfo{
			{ID: "primary", Summary: "Primary", Primary: true, AccessRole: "owner"},
		},
		Calls: make(map[string]int),
	}
}

// Seed appends events without going through CreateEvent. Events that have
// no ID get one assigned.
func (f *Fake) Seed(events ...calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		if ev.ID == "" {
			f.nextID++
			ev.ID = fmt.Sprintf("evt-%d", f.nextID)
		}
		f.events = append(f.events, ev)
	}
}

func (f *Fake) record(op string) {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[op]++
}

// CallCount returns how many times the named operation ran.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// TotalCalls returns the number of remote operations across all names.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.Calls {
		total += n
	}
	return total
}

func (f *Fake) ListCalendars(_ context.Context) ([]calendar.CalendarInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("listCalendars")
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]calendar.CalendarInfo(nil), f.Calendars...), nil
}

func (f *Fake) ListEvents(_ context.Context, _ string, maxResults int64) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("listEvents")
	if f.Err != nil {
		return nil, f.Err
	}
	if maxResults <= 0 {
		maxResults = calendar.DefaultMaxResults
	}
	out := append([]calendar.Event(nil), f.events...)
	if int64(len(out)) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (f *Fake) GetEvent(_ context.Context, _ string, eventID string) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getEvent")
	if f.Err != nil {
		return nil, f.Err
	}
	for i := range f.events {
		if f.events[i].ID == eventID {
			ev := f.events[i]
			return &ev, nil
		}
	}
	return nil, &calendar.NotFoundError{Resource: "event", ID: eventID}
}

func (f *Fake) CreateEvent(_ context.Context, _ string, event calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("createEvent")
	if f.Err != nil {
		return nil, f.Err
	}
	f.nextID++
	event.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.events = append(f.events, event)
	created := event
	return &created, nil
}

func (f *Fake) UpdateEvent(_ context.Context, _ string, eventID string, event calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("updateEvent")
	if f.Err != nil {
		return nil, f.Err
	}
	for i := range f.events {
		if f.events[i].ID == eventID {
			event.ID = eventID
			f.events[i] = event
			updated := event
			return &updated, nil
		}
	}
	return nil, &calendar.NotFoundError{Resource: "event", ID: eventID}
}

func (f *Fake) DeleteEvent(_ context.Context, _ string, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("deleteEvent")
	if f.Err != nil {
		return f.Err
	}
	for i := range f.events {
		if f.events[i].ID == eventID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return &calendar.NotFoundError{Resource: "event", ID: eventID}
}
