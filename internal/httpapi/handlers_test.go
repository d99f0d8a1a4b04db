package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"calview/internal/calendar"
	"calview/internal/calendar/calendartest"
	"calview/internal/session"
)

// testServer wires the handlers against an in-memory calendar service.
type testServer struct {
	mux      *http.ServeMux
	fake     *calendartest.Fake
	sessions *session.Store
	sc       *ServerContext
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	fake := calendartest.New()
	sessions := session.NewStore(nil)
	t.Cleanup(sessions.Stop)

	sc, err := NewServerContext(context.Background(), sessions, func(_ context.Context, accessToken string) (calendar.Service, error) {
		if accessToken == "" {
			return nil, calendar.ErrMissingCredential
		}
		return fake, nil
	})
	if err != nil {
		t.Fatalf("NewServerContext: %v", err)
	}
	t.Cleanup(sc.Shutdown)

	mux := http.NewServeMux()
	NewHandlers(sc, nil, nil).RegisterRoutes(mux)

	return &testServer{mux: mux, fake: fake, sessions: sessions, sc: sc}
}

// signIn creates an authenticated session and returns its ID.
func (ts *testServer) signIn() string {
	return ts.sessions.Create("user-1", "tok-valid", "", time.Time{}).ID
}

func (ts *testServer) do(method, target, sessionID, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if sessionID != "" {
		r.Header.Set("Authorization", "Bearer "+sessionID)
	}
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return body
}

func TestListEventsUnauthenticated(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/calendar/events", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Unauthorized" {
		t.Errorf("error = %v, want Unauthorized", body["error"])
	}
	// The gate must reject before any remote call happens.
	if n := ts.fake.TotalCalls(); n != 0 {
		t.Errorf("remote calls = %d, want 0", n)
	}
}

func TestListEventsUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/calendar/events", "no-such-session", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if n := ts.fake.TotalCalls(); n != 0 {
		t.Errorf("remote calls = %d, want 0", n)
	}
}

func TestListEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.fake.Seed(
		calendar.Event{Summary: "Standup", Start: &calendar.EventTime{DateTime: "2024-03-10T09:00:00Z"}},
		calendar.Event{Summary: "Planning", Start: &calendar.EventTime{Date: "2024-03-11"}},
	)

	w := ts.do(http.MethodGet, "/api/calendar/events", ts.signIn(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}

	var body struct {
		Events  []calendar.Event `json:"events"`
		Success bool             `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if len(body.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(body.Events))
	}
	// The list comes back verbatim, in upstream order.
	if body.Events[0].Summary != "Standup" || body.Events[1].Summary != "Planning" {
		t.Errorf("events out of order: %v, %v", body.Events[0].Summary, body.Events[1].Summary)
	}
	if body.Events[1].Start.Date != "2024-03-11" {
		t.Errorf("all-day start = %q, want 2024-03-11", body.Events[1].Start.Date)
	}
}

func TestListEventsEmpty(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/calendar/events", ts.signIn(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	// An empty upstream list serializes as [], not null.
	if !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Errorf("body = %s, want empty events array", w.Body.String())
	}
}

func TestListEventsUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.fake.Err = errors.New("googleapi: Error 503: backend unavailable")

	w := ts.do(http.MethodGet, "/api/calendar/events", ts.signIn(), "")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Failed to fetch events" {
		t.Errorf("error = %v, want generic message", body["error"])
	}
	// Upstream details must not leak to the client.
	if strings.Contains(w.Body.String(), "503") || strings.Contains(w.Body.String(), "googleapi") {
		t.Errorf("response leaks upstream detail: %s", w.Body.String())
	}
}

func TestListEventsBadMaxResults(t *testing.T) {
	ts := newTestServer(t)

	for _, raw := range []string{"abc", "0", "-5"} {
		w := ts.do(http.MethodGet, "/api/calendar/events?maxResults="+raw, ts.signIn(), "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("maxResults=%s: status = %d, want 400", raw, w.Code)
		}
	}
}

func TestCreateEvent(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"summary": "Review",
		"start": {"dateTime": "2024-03-12T10:00:00Z"},
		"end": {"dateTime": "2024-03-12T11:00:00Z"}
	}`
	w := ts.do(http.MethodPost, "/api/calendar/events", ts.signIn(), body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}

	var resp struct {
		Event   *calendar.Event `json:"event"`
		Success bool            `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Event == nil {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if resp.Event.ID == "" {
		t.Error("created event has no ID")
	}
	if resp.Event.Summary != "Review" {
		t.Errorf("summary = %q, want Review", resp.Event.Summary)
	}
	if ts.fake.CallCount("createEvent") != 1 {
		t.Errorf("createEvent calls = %d, want 1", ts.fake.CallCount("createEvent"))
	}
}

func TestCreateEventInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/calendar/events", ts.signIn(), `{"summary": `)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if ts.fake.CallCount("createEvent") != 0 {
		t.Error("malformed body must not reach the remote service")
	}
}

func TestCreateEventSchemaValidation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signIn()

	tests := []struct {
		name string
		body string
	}{
		{"missing summary", `{"start": {"date": "2024-03-12"}, "end": {"date": "2024-03-13"}}`},
		{"missing start", `{"summary": "X", "end": {"date": "2024-03-13"}}`},
		{"missing end", `{"summary": "X", "start": {"date": "2024-03-12"}}`},
		{"start after end", `{"summary": "X", "start": {"date": "2024-03-14"}, "end": {"date": "2024-03-12"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/api/calendar/events", id, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400\n%s", w.Code, w.Body.String())
			}
		})
	}

	if ts.fake.CallCount("createEvent") != 0 {
		t.Error("invalid events must not reach the remote service")
	}
}

func TestCreateEventUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.fake.Err = errors.New("quota exceeded")

	body := `{
		"summary": "Review",
		"start": {"date": "2024-03-12"},
		"end": {"date": "2024-03-13"}
	}`
	w := ts.do(http.MethodPost, "/api/calendar/events", ts.signIn(), body)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] != "Failed to create event" {
		t.Errorf("error = %v, want generic message", resp["error"])
	}
}

func TestUpdateEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.fake.Seed(calendar.Event{ID: "evt-keep", Summary: "Old title",
		Start: &calendar.EventTime{Date: "2024-03-12"},
		End:   &calendar.EventTime{Date: "2024-03-13"}})

	body := `{
		"summary": "New title",
		"start": {"date": "2024-03-12"},
		"end": {"date": "2024-03-13"}
	}`
	w := ts.do(http.MethodPut, "/api/calendar/events/evt-keep", ts.signIn(), body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	var resp struct {
		Event *calendar.Event `json:"event"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Event.Summary != "New title" || resp.Event.ID != "evt-keep" {
		t.Errorf("updated event = %+v", resp.Event)
	}
}

func TestUpdateEventNotFound(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"summary": "X",
		"start": {"date": "2024-03-12"},
		"end": {"date": "2024-03-13"}
	}`
	w := ts.do(http.MethodPut, "/api/calendar/events/missing", ts.signIn(), body)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] != "Event not found" {
		t.Errorf("error = %v, want Event not found", resp["error"])
	}
}

func TestDeleteEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.fake.Seed(calendar.Event{ID: "evt-gone", Summary: "Doomed"})

	w := ts.do(http.MethodDelete, "/api/calendar/events/evt-gone", ts.signIn(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	if resp := decodeBody(t, w); resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}

	// Deleting again reports not found.
	w = ts.do(http.MethodDelete, "/api/calendar/events/evt-gone", ts.signIn(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestListCalendars(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/calendar/calendars", ts.signIn(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Calendars []calendar.CalendarInfo `json:"calendars"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Calendars) != 1 || !resp.Calendars[0].Primary {
		t.Errorf("calendars = %+v, want one primary calendar", resp.Calendars)
	}
}

func TestSessionCreateAndUse(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/session", "",
		`{"accessToken": "ya29.token", "refreshToken": "1//refresh", "accessTokenExpires": 1710000000, "userId": "user-9"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	sessionID, _ := resp["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("no sessionId in response")
	}
	if sessionID == "ya29.token" {
		t.Error("session ID must not be the access token")
	}

	// The Set-Cookie header carries the same ID.
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie || cookies[0].Value != sessionID {
		t.Errorf("cookies = %v, want %s=%s", cookies, sessionCookie, sessionID)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	// The fresh session authenticates API calls.
	if w := ts.do(http.MethodGet, "/api/calendar/events", sessionID, ""); w.Code != http.StatusOK {
		t.Errorf("authenticated request status = %d, want 200", w.Code)
	}
}

func TestSessionCreateViaCookie(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signIn()

	r := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("cookie-authenticated request status = %d, want 200", w.Code)
	}
}

func TestSessionCreateMissingToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/session", "", `{"userId": "user-9"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSessionDelete(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signIn()

	w := ts.do(http.MethodDelete, "/api/session", id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// The session no longer authenticates.
	if w := ts.do(http.MethodGet, "/api/calendar/events", id, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status after sign-out = %d, want 401", w.Code)
	}

	// Signing out twice is fine.
	if w := ts.do(http.MethodDelete, "/api/session", id, ""); w.Code != http.StatusOK {
		t.Errorf("second sign-out status = %d, want 200", w.Code)
	}
}
