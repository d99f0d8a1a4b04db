package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrMissingCredential is returned when a client is constructed without an
// access token. It aborts the operation locally; no remote call is made.
var ErrMissingCredential = errors.New("no access token available")

// NotFoundError indicates that the remote service does not know the
// requested resource.
type NotFoundError struct {
	Resource string // "event" or "calendar"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// UpstreamError wraps any other failure of a remote calendar call. The
// wrapped cause is for logs only and must never be returned to HTTP
// clients verbatim.
type UpstreamError struct {
	Op  string // operation that failed, e.g. "events.list"
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// wrapError translates a google-api-go-client error into the package
// taxonomy. A remote 404 becomes a NotFoundError; everything else is an
// UpstreamError.
func wrapError(op, resource, id string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return &UpstreamError{Op: op, Err: err}
}
