package grid

import (
	"time"

	"calview/internal/calendar"
)

const (
	// DaysPerWeek is the number of columns in the grid.
	DaysPerWeek = 7

	// WeeksPerGrid is the number of rows in the grid. The grid is always
	// six full weeks so the layout is stable across months.
	WeeksPerGrid = 6

	// GridCells is the total cell count of a month grid.
	GridCells = DaysPerWeek * WeeksPerGrid

	// MaxVisibleEvents is the per-cell display cap. Days with more events
	// show the first MaxVisibleEvents in upstream order plus an overflow
	// count.
	MaxVisibleEvents = 3
)

// Month identifies a displayed month. Only the month identity matters;
// there is no day-of-month component.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM value.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, err
	}
	return MonthOf(t), nil
}

// Next advances by exactly one calendar month.
func (m Month) Next() Month {
	return MonthOf(m.first(time.UTC).AddDate(0, 1, 0))
}

// Prev is the inverse of Next.
func (m Month) Prev() Month {
	return MonthOf(m.first(time.UTC).AddDate(0, -1, 0))
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return m.first(time.UTC).Format("2006-01")
}

// Title formats the month for display, e.g. "March 2024".
func (m Month) Title() string {
	return m.first(time.UTC).Format("January 2006")
}

// first returns midnight on the 1st of the month in loc. First-of-month
// arithmetic is sufficient everywhere since only month identity matters.
func (m Month) first(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Cell is one day of the month grid with the events whose effective date
// falls on it, in upstream order.
type Cell struct {
	Date    time.Time // midnight, local
	InMonth bool      // false for leading/trailing days of adjacent months
	Today   bool
	Events  []calendar.Event
}

// Day is the day-of-month number of the cell.
func (c Cell) Day() int {
	return c.Date.Day()
}

// Visible returns the events shown in the cell, capped at
// MaxVisibleEvents.
func (c Cell) Visible() []calendar.Event {
	if len(c.Events) <= MaxVisibleEvents {
		return c.Events
	}
	return c.Events[:MaxVisibleEvents]
}

// Overflow returns how many events are hidden behind the display cap, or
// zero when everything fits.
func (c Cell) Overflow() int {
	if n := len(c.Events) - MaxVisibleEvents; n > 0 {
		return n
	}
	return 0
}

// MonthGrid is the computed view of one month: GridCells cells in
// WeeksPerGrid rows, starting on the configured week-start day.
type MonthGrid struct {
	Month     Month
	WeekStart time.Weekday
	Cells     []Cell
}

// Rows splits the cells into weeks for row-by-row rendering.
func (g MonthGrid) Rows() [][]Cell {
	rows := make([][]Cell, 0, WeeksPerGrid)
	for i := 0; i < len(g.Cells); i += DaysPerWeek {
		rows = append(rows, g.Cells[i:i+DaysPerWeek])
	}
	return rows
}

// DayNames returns the column headers starting from the grid's week-start
// day, e.g. [Sun Mon ... Sat].
func (g MonthGrid) DayNames() []string {
	names := make([]string, DaysPerWeek)
	for i := range names {
		names[i] = time.Weekday((int(g.WeekStart) + i) % DaysPerWeek).String()[:3]
	}
	return names
}

// Build computes the grid for a month from a flat event list. The first
// cell is the first weekStart day on or before the 1st of the month; the
// grid always spans six complete weeks. now supplies both the "today"
// marker and the location used to derive effective dates.
//
// An event is bucketed into exactly the cell matching its effective date:
// the local date of its timestamped start if present, else its all-day
// date. Events with neither are left out of every cell. Matching is by
// date equality only, so multi-day events appear on their start date
// alone.
func Build(m Month, events []calendar.Event, now time.Time, weekStart time.Weekday) MonthGrid {
	loc := now.Location()
	first := m.first(loc)

	lead := (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	start := first.AddDate(0, 0, -lead)

	buckets := make(map[string][]calendar.Event)
	for _, ev := range events {
		if date, ok := ev.StartDate(loc); ok {
			key := date.Format("2006-01-02")
			buckets[key] = append(buckets[key], ev)
		}
	}

	todayKey := now.Format("2006-01-02")

	cells := make([]Cell, GridCells)
	for i := range cells {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		cells[i] = Cell{
			Date:    day,
			InMonth: day.Month() == m.Month && day.Year() == m.Year,
			Today:   key == todayKey,
			Events:  buckets[key],
		}
	}

	return MonthGrid{Month: m, WeekStart: weekStart, Cells: cells}
}
