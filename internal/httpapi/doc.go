// Package httpapi implements the JSON API of the calview server.
//
// The API is deliberately thin: it resolves the caller's session, obtains
// a calendar client for the session's access token, forwards the request
// to the remote calendar API, and relays the result verbatim. All view
// logic lives elsewhere; this package only moves data.
//
// Endpoints:
//
//	POST   /api/session                  deposit credentials, open a session
//	DELETE /api/session                  close the session
//	GET    /api/calendar/events          list upcoming events
//	POST   /api/calendar/events          create an event
//	PUT    /api/calendar/events/{id}     update an event
//	DELETE /api/calendar/events/{id}     delete an event
//	GET    /api/calendar/calendars       list the user's calendars
//
// Requests without an authenticated session receive 401 before any remote
// call is attempted. Upstream failures map to 500 with a generic message;
// failure details go to the server log only.
package httpapi
