// Package web renders the month view. Pages are server-rendered from an
// embedded template; the browser holds no state beyond the session
// cookie, and navigation happens through the ?nav query parameter.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"calview/internal/calendar"
	"calview/internal/grid"
	"calview/internal/instrumentation"
	"calview/internal/logging"
	"calview/internal/session"
)

//go:embed templates
var templateFS embed.FS

// DefaultSignInURL is where the signed-out page sends the user. The auth
// collaborator lives behind this path; this service never handles
// credentials itself.
const DefaultSignInURL = "/auth/signin"

// ClientFor resolves the calendar client for a session. The server wires
// this to the API server's client cache.
type ClientFor func(sess *session.Session) (calendar.Service, error)

// Config holds the view handler configuration.
type Config struct {
	Sessions  *session.Store
	ClientFor ClientFor
	WeekStart time.Weekday
	SignInURL string
	Logger    *slog.Logger
	Metrics   *instrumentation.Metrics
}

// Handler serves the month view. Each authenticated session gets its own
// grid controller so two browsers never share view state.
type Handler struct {
	ctx       context.Context
	sessions  *session.Store
	clientFor ClientFor
	weekStart time.Weekday
	signInURL string
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	tmpl      *template.Template

	mu          sync.Mutex
	controllers map[string]*grid.Controller
}

// NewHandler creates the view handler. ctx outlives individual requests
// and bounds the background event fetches.
func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}
	if cfg.SignInURL == "" {
		cfg.SignInURL = DefaultSignInURL
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"eventLabel": eventLabel,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &Handler{
		ctx:         ctx,
		sessions:    cfg.Sessions,
		clientFor:   cfg.ClientFor,
		weekStart:   cfg.WeekStart,
		signInURL:   cfg.SignInURL,
		logger:      logging.WithComponent(cfg.Logger, "web"),
		metrics:     cfg.Metrics,
		tmpl:        tmpl,
		controllers: make(map[string]*grid.Controller),
	}, nil
}

// RegisterRoutes registers the view endpoints on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
}

// viewData is what the page template renders from.
type viewData struct {
	SignedIn  bool
	SignInURL string
	Title     string
	Loading   bool
	DayNames  []string
	Rows      [][]grid.Cell
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromRequest(r)
	if !sess.Authenticated() {
		h.render(w, viewData{SignedIn: false, SignInURL: h.signInURL})
		return
	}

	ctrl := h.controllerFor(sess)

	// Navigation triggers a redirect so a reload never repeats the
	// navigation step.
	if nav := r.URL.Query().Get("nav"); nav != "" {
		switch nav {
		case "next":
			ctrl.Next(h.ctx)
		case "prev":
			ctrl.Prev(h.ctx)
		case "today":
			ctrl.Today(h.ctx)
		case "refresh":
			ctrl.Refresh(h.ctx)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	g := ctrl.Grid()
	h.metrics.RecordGridRender(r.Context(), g.Month.String())

	h.render(w, viewData{
		SignedIn: true,
		Title:    g.Month.Title(),
		Loading:  ctrl.Loading(),
		DayNames: g.DayNames(),
		Rows:     g.Rows(),
	})
}

func (h *Handler) render(w http.ResponseWriter, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "index.html.tmpl", data); err != nil {
		h.logger.Error("template render failed", logging.Err(err))
	}
}

func (h *Handler) sessionFromRequest(r *http.Request) *session.Session {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil
	}
	sess, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return nil
	}
	return sess
}

// controllerFor returns the grid controller for a session, creating it
// and kicking off the first fetch on first use. Controllers of sessions
// that no longer exist are pruned on the way.
func (h *Handler) controllerFor(sess *session.Session) *grid.Controller {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id := range h.controllers {
		if _, ok := h.sessions.Get(id); !ok {
			delete(h.controllers, id)
		}
	}

	if ctrl, ok := h.controllers[sess.ID]; ok {
		return ctrl
	}

	fetch := func(ctx context.Context, _ grid.Month) ([]calendar.Event, error) {
		client, err := h.clientFor(sess)
		if err != nil {
			return nil, err
		}
		return client.ListEvents(ctx, calendar.DefaultCalendarID, calendar.DefaultMaxResults)
	}

	ctrl := grid.NewController(fetch, h.weekStart, h.logger, h.metrics)
	h.controllers[sess.ID] = ctrl
	ctrl.Refresh(h.ctx)
	return ctrl
}

// eventLabel is the one-line form of an event in a grid cell: start time
// for timed events, bare summary for all-day ones.
func eventLabel(ev calendar.Event) string {
	if ev.Start != nil && ev.Start.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, ev.Start.DateTime); err == nil {
			return ts.Format("15:04") + " " + ev.Summary
		}
	}
	return ev.Summary
}
