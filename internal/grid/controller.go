package grid

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"calview/internal/calendar"
	"calview/internal/logging"
)

// FetchFunc loads the events to display for a month. Implementations call
// the calendar adapter; the controller never touches the network itself.
type FetchFunc func(ctx context.Context, month Month) ([]calendar.Event, error)

// Metrics is the slice of the instrumentation surface the controller
// reports to.
type Metrics interface {
	RecordStaleFetchDiscarded(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordStaleFetchDiscarded(context.Context) {}

// Controller owns the view state of one calendar view: the visible month,
// the event list for it, and the loading flag. Navigation actions are
// serialized under a single mutex, and every fetch carries a generation
// number; a completion whose generation is no longer current is
// discarded, so a slow response for an old month cannot overwrite the
// state of a newer navigation.
//
// A failed fetch leaves the event list empty and clears the loading flag.
// There is no retry and no error surface toward the view; this mirrors
// the intentionally forgiving client behavior.
type Controller struct {
	fetch     FetchFunc
	weekStart time.Weekday
	logger    *slog.Logger
	metrics   Metrics

	// now is the reference clock, overridable in tests.
	now func() time.Time

	mu         sync.Mutex
	month      Month
	events     []calendar.Event
	loading    bool
	generation uint64
}

// NewController creates a controller showing the current real-world month.
func NewController(fetch FetchFunc, weekStart time.Weekday, logger *slog.Logger, metrics Metrics) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	c := &Controller{
		fetch:     fetch,
		weekStart: weekStart,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
	c.month = MonthOf(c.now())
	return c
}

// Month returns the currently visible month.
func (c *Controller) Month() Month {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.month
}

// Loading reports whether a fetch for the visible month is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Grid builds the month grid from the current state. While a fetch is
// outstanding the caller should render a loading indicator instead.
func (c *Controller) Grid() MonthGrid {
	c.mu.Lock()
	month, events := c.month, c.events
	c.mu.Unlock()
	return Build(month, events, c.now(), c.weekStart)
}

// Next advances the visible month by one and refetches.
func (c *Controller) Next(ctx context.Context) {
	c.navigate(ctx, c.Month().Next())
}

// Prev moves the visible month back by one and refetches.
func (c *Controller) Prev(ctx context.Context) {
	c.navigate(ctx, c.Month().Prev())
}

// Today resets the view to the current real-world month and refetches.
func (c *Controller) Today(ctx context.Context) {
	c.navigate(ctx, MonthOf(c.now()))
}

// Refresh refetches the visible month without changing it. Used when a
// session first becomes authenticated and after event mutations.
func (c *Controller) Refresh(ctx context.Context) {
	c.navigate(ctx, c.Month())
}

func (c *Controller) navigate(ctx context.Context, month Month) {
	gen := c.begin(month)
	go func() {
		events, err := c.fetch(ctx, month)
		if err != nil {
			c.logger.Warn("event fetch failed",
				logging.Month(month.String()),
				logging.Err(err))
			events = nil
		}
		c.complete(gen, events)
	}()
}

// begin records a new navigation target and marks the view as loading.
// It returns the generation that the matching complete call must present.
func (c *Controller) begin(month Month) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.month = month
	c.loading = true
	c.generation++
	return c.generation
}

// complete installs fetched events if gen is still current; stale
// completions are dropped.
func (c *Controller) complete(gen uint64, events []calendar.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding stale fetch result",
			"generation", gen, "current", c.generation)
		c.metrics.RecordStaleFetchDiscarded(context.Background())
		return
	}
	c.events = events
	c.loading = false
}
