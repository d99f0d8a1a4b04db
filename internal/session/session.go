// Package session holds browser sessions and the bearer tokens the
// external auth collaborator deposits into them. The core never issues,
// refreshes, or validates tokens; it only checks presence.
package session

import (
	"time"
)

// CookieName is the browser cookie that carries the session ID.
const CookieName = "calview_session"

// Session is the server-side record of one signed-in browser. The token
// fields are owned by the auth collaborator and read-only here.
type Session struct {
	// ID is the opaque identifier handed to the browser. It is not the
	// access token.
	ID string

	// UserID identifies the signed-in user at the auth collaborator.
	UserID string

	// AccessToken is the bearer credential for the remote calendar API.
	AccessToken string

	// RefreshToken is carried for the auth collaborator's benefit; this
	// service never uses it.
	RefreshToken string

	// Expiry is the access token's expiry as reported at sign-in. Zero
	// means unknown.
	Expiry time.Time

	CreatedAt  time.Time
	lastAccess time.Time
}

// Authenticated reports whether the session carries an access token. This
// is the only credential check the core performs.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}
