package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"calview/internal/calendar"
	"calview/internal/instrumentation"
	"calview/internal/logging"
	"calview/internal/session"
)

// sessionCookie is the name of the browser cookie that carries the
// session ID.
const sessionCookie = session.CookieName

// Generic client-facing error messages. Upstream failure details are
// logged server-side only; the browser never sees them.
const (
	msgUnauthorized      = "Unauthorized"
	msgInvalidBody       = "Invalid request body"
	msgEventNotFound     = "Event not found"
	msgFetchFailed       = "Failed to fetch events"
	msgCreateFailed      = "Failed to create event"
	msgUpdateFailed      = "Failed to update event"
	msgDeleteFailed      = "Failed to delete event"
	msgCalendarsFailed   = "Failed to fetch calendars"
	msgClientUnavailable = "Calendar service unavailable"
)

// Handlers bundles the API endpoint handlers and their dependencies.
type Handlers struct {
	sc      *ServerContext
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewHandlers creates the API handlers.
func NewHandlers(sc *ServerContext, logger *slog.Logger, metrics *instrumentation.Metrics) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	return &Handlers{
		sc:      sc,
		logger:  logging.WithComponent(logger, "httpapi"),
		metrics: metrics,
	}
}

// RegisterRoutes registers all API endpoints on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/session", h.handleSessionCreate)
	mux.HandleFunc("DELETE /api/session", h.handleSessionDelete)
	mux.HandleFunc("GET /api/calendar/events", h.handleListEvents)
	mux.HandleFunc("POST /api/calendar/events", h.handleCreateEvent)
	mux.HandleFunc("PUT /api/calendar/events/{id}", h.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/calendar/events/{id}", h.handleDeleteEvent)
	mux.HandleFunc("GET /api/calendar/calendars", h.handleListCalendars)
}

// sessionFromRequest resolves the caller's session from the Authorization
// header (Bearer <session ID>) or the session cookie. Returns nil when no
// valid session is found.
func (h *Handlers) sessionFromRequest(r *http.Request) *session.Session {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		if sess, ok := h.sc.Sessions().Get(auth[7:]); ok {
			return sess
		}
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := h.sc.Sessions().Get(cookie.Value); ok {
			return sess
		}
	}

	return nil
}

// authenticate resolves the session and its calendar client. On failure
// it writes the 401 response itself and returns ok=false. No remote call
// happens before this check passes.
func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request) (*session.Session, calendar.Service, bool) {
	sess := h.sessionFromRequest(r)
	if !sess.Authenticated() {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return nil, nil, false
	}

	client, err := h.sc.ClientForSession(sess)
	if err != nil {
		h.logger.Error("failed to create calendar client",
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgClientUnavailable)
		return nil, nil, false
	}

	return sess, client, true
}

func (h *Handlers) handleListEvents(w http.ResponseWriter, r *http.Request) {
	sess, client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	calendarID := r.URL.Query().Get("calendarId")
	if calendarID == "" {
		calendarID = calendar.DefaultCalendarID
	}
	maxResults := int64(calendar.DefaultMaxResults)
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
			return
		}
		maxResults = n
	}

	start := time.Now()
	events, err := client.ListEvents(r.Context(), calendarID, maxResults)
	h.recordOperation(r, "list", err, time.Since(start))
	if err != nil {
		h.logger.Error("failed to fetch events",
			logging.Operation("list"),
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	if events == nil {
		events = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":  events,
		"success": true,
	})
}

func (h *Handlers) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	sess, client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := event.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	created, err := client.CreateEvent(r.Context(), calendar.DefaultCalendarID, event)
	h.recordOperation(r, "create", err, time.Since(start))
	if err != nil {
		h.logger.Error("failed to create event",
			logging.Operation("create"),
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":   created,
		"success": true,
	})
}

func (h *Handlers) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	sess, client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")

	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := event.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	updated, err := client.UpdateEvent(r.Context(), calendar.DefaultCalendarID, eventID, event)
	h.recordOperation(r, "update", err, time.Since(start))
	if err != nil {
		var notFound *calendar.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, msgEventNotFound)
			return
		}
		h.logger.Error("failed to update event",
			logging.Operation("update"),
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgUpdateFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":   updated,
		"success": true,
	})
}

func (h *Handlers) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess, client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")

	start := time.Now()
	err := client.DeleteEvent(r.Context(), calendar.DefaultCalendarID, eventID)
	h.recordOperation(r, "delete", err, time.Since(start))
	if err != nil {
		var notFound *calendar.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, msgEventNotFound)
			return
		}
		h.logger.Error("failed to delete event",
			logging.Operation("delete"),
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
	})
}

func (h *Handlers) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	sess, client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	start := time.Now()
	calendars, err := client.ListCalendars(r.Context())
	h.recordOperation(r, "listCalendars", err, time.Since(start))
	if err != nil {
		h.logger.Error("failed to fetch calendars",
			logging.Operation("listCalendars"),
			logging.SessionHash(sess.ID),
			logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgCalendarsFailed)
		return
	}

	if calendars == nil {
		calendars = []calendar.CalendarInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"calendars": calendars,
		"success":   true,
	})
}

func (h *Handlers) recordOperation(r *http.Request, op string, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	h.metrics.RecordCalendarOperation(r.Context(), op, status, d)
	h.logger.Debug("calendar operation finished",
		logging.Operation(op),
		logging.Status(status),
		"duration", d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
