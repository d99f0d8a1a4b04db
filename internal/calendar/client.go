package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// DefaultCalendarID is used when the caller does not name a calendar.
	DefaultCalendarID = "primary"

	// DefaultMaxResults is the default page size for event listings.
	DefaultMaxResults = 50
)

// Service is the capability surface of the remote calendar API. Handlers
// and the grid controller depend on this interface so that tests can run
// against an in-memory implementation without network access.
type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, maxResults int64) ([]Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	CreateEvent(ctx context.Context, calendarID string, event Event) (*Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event Event) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Client wraps the Google Calendar service for a single bearer token.
type Client struct {
	svc *gcal.Service

	// now is the reference clock for ListEvents' timeMin; overridable in tests.
	now func() time.Time
}

var _ Service = (*Client)(nil)

// NewClient creates a Calendar client that authenticates every call with
// the given bearer access token. It fails with ErrMissingCredential when
// the token is empty; no other validation happens locally, an invalid or
// expired token surfaces as an UpstreamError on the first remote call.
func NewClient(ctx context.Context, accessToken string) (*Client, error) {
	if accessToken == "" {
		return nil, ErrMissingCredential
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc: svc,
		now: time.Now,
	}, nil
}

// ListCalendars lists all calendars accessible to the user.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, &UpstreamError{Op: "calendarList.list", Err: err}
	}

	var calendars []CalendarInfo
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}

// GetCalendar retrieves the descriptor of a specific calendar.
func (c *Client) GetCalendar(ctx context.Context, calendarID string) (*CalendarInfo, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("calendarList.get", "calendar", calendarID, err)
	}

	info := toCalendarInfo(entry)
	return &info, nil
}

// GetPrimaryCalendar retrieves the descriptor of the primary calendar.
func (c *Client) GetPrimaryCalendar(ctx context.Context) (*CalendarInfo, error) {
	return c.GetCalendar(ctx, DefaultCalendarID)
}

// ListEvents lists upcoming events from a calendar, ordered by start time
// ascending, with recurring events expanded into single occurrences. The
// listing starts at the current time; past events are not returned. An
// empty calendarID means the primary calendar, maxResults <= 0 means
// DefaultMaxResults.
func (c *Client) ListEvents(ctx context.Context, calendarID string, maxResults int64) ([]Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	result, err := c.svc.Events.List(calendarID).
		TimeMin(c.now().Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &UpstreamError{Op: "events.list", Err: err}
	}

	var events []Event
	for _, item := range result.Items {
		events = append(events, toEvent(item))
	}

	return events, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	ev, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("events.get", "event", eventID, err)
	}

	result := toEvent(ev)
	return &result, nil
}

// CreateEvent creates a new event and returns it with the remote-assigned
// ID. The body is forwarded as-is; semantic rejection by the remote
// service surfaces as an UpstreamError.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, event Event) (*Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	created, err := c.svc.Events.Insert(calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, &UpstreamError{Op: "events.insert", Err: err}
	}

	result := toEvent(created)
	return &result, nil
}

// UpdateEvent replaces an existing event. An unknown eventID fails with
// NotFoundError.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, event Event) (*Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("events.update", "event", eventID, err)
	}

	result := toEvent(updated)
	return &result, nil
}

// DeleteEvent deletes an event. An unknown eventID fails with
// NotFoundError.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return wrapError("events.delete", "event", eventID, err)
	}
	return nil
}
