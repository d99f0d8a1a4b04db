// Package grid computes the month-grid view of a flat event list.
//
// Build is a pure function from a visible month plus events to a fixed
// 6x7 grid of day cells; the Controller owns the view state (visible
// month, fetched events, loading flag) and serializes navigation against
// asynchronous event fetches with a generation counter so that a
// late-arriving response for an old month never overwrites a newer one.
package grid
