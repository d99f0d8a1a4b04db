package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"calview/internal/logging"
)

// sessionRequest is the body of POST /api/session. The auth collaborator
// deposits the credentials it obtained; this service stores them opaquely.
type sessionRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// AccessTokenExpires is the token expiry as unix seconds. Zero means
	// the collaborator did not report one.
	AccessTokenExpires int64  `json:"accessTokenExpires,omitempty"`
	UserID             string `json:"userId,omitempty"`
}

func (h *Handlers) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "Missing access token")
		return
	}

	var expiry time.Time
	if req.AccessTokenExpires > 0 {
		expiry = time.Unix(req.AccessTokenExpires, 0)
	}

	sess := h.sc.Sessions().Create(req.UserID, req.AccessToken, req.RefreshToken, expiry)
	h.metrics.IncrementActiveSessions(r.Context())

	h.logger.Info("session created",
		logging.SessionHash(sess.ID),
		logging.UserHash(req.UserID),
		"token", logging.SanitizeToken(req.AccessToken))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"success":   true,
	})
}

func (h *Handlers) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	// Closing an unknown or already-closed session succeeds; sign-out is
	// idempotent from the browser's point of view.
	if sess := h.sessionFromRequest(r); sess != nil {
		h.sc.Sessions().Delete(sess.ID)
		h.sc.DropClient(sess.ID)
		h.metrics.DecrementActiveSessions(r.Context())
		h.logger.Info("session closed", logging.SessionHash(sess.ID))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
	})
}
