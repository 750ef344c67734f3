package handlers

import (
	"net/http"
	"time"

	"github.com/webfolio/contact-gateway/internal/csrf"
	"github.com/webfolio/contact-gateway/internal/security"
	"github.com/webfolio/contact-gateway/internal/util"
)

// SessionHeader correlates a browser's token request with its later form
// submission.
const SessionHeader = "X-Session-ID"

type csrfTokenResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	Expires   int64  `json:"expires"`
	ExpiresIn int    `json:"expiresIn"`
}

// CSRFToken issues or refreshes the per-session CSRF token.
func (api *API) CSRFToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := util.ExtractClientIP(r)

	// Expired-but-unswept entries are a normal transient state; sweep
	// opportunistically rather than on a timer
	api.csrf.CleanupExpired()

	if !api.origin.Verify(r) {
		api.secLog.Log(ctx, security.Event{
			Type:      "origin_rejected",
			IP:        identity,
			UserAgent: r.UserAgent(),
			Severity:  security.SeverityMedium,
			Details:   map[string]any{"origin": r.Header.Get("Origin"), "endpoint": "csrf-token"},
		})
		util.JSONResponse(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
		return
	}

	sessionID := r.Header.Get(SessionHeader)

	var token *csrf.Token
	var err error

	if sessionID != "" {
		// Reuse the session: refresh the token if it is close to expiry
		token, err = api.csrf.Refresh(ctx, sessionID)
		if err != nil {
			api.logger.Error("csrf refresh failed", "error", err)
			util.JSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
			return
		}
	}

	if token == nil {
		if sessionID == "" {
			sessionID = csrf.GenerateSessionID(identity, r.UserAgent())
		}
		token, err = api.csrf.Generate(ctx, sessionID)
		if err != nil {
			api.logger.Error("csrf generate failed", "error", err)
			util.JSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
			return
		}
	}

	util.JSONResponse(w, http.StatusOK, csrfTokenResponse{
		Success:   true,
		Token:     token.Token,
		SessionID: token.SessionID,
		Expires:   token.ExpiresAt.UnixMilli(),
		ExpiresIn: int(time.Until(token.ExpiresAt).Seconds()),
	})
}
