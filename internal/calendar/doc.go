// Package calendar provides a session-scoped adapter for the Google
// Calendar API.
//
// A Client is constructed from a single bearer access token and exposes
// read and write operations for calendars and events. All semantic
// validation of event bodies is deferred to the remote service; the only
// local check at construction time is the presence of the token.
//
// The Service interface is the seam between HTTP handlers and the remote
// API. Production code uses Client; tests back the interface with the
// in-memory fake from the calendartest subpackage.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx, session.AccessToken)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List upcoming events from the primary calendar
//	events, err := client.ListEvents(ctx, "", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
