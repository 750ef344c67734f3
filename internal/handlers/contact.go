package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/webfolio/contact-gateway/events"
	"github.com/webfolio/contact-gateway/internal/mail/template"
	"github.com/webfolio/contact-gateway/internal/ratelimit"
	"github.com/webfolio/contact-gateway/internal/security"
	"github.com/webfolio/contact-gateway/internal/util"
)

// ContactRequest is the contact form payload.
type ContactRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Subject   string `json:"subject" validate:"required,min=5,max=200"`
	Message   string `json:"message" validate:"required,min=10,max=5000"`
	Honeypot  string `json:"honeypot"`
	CSRFToken string `json:"csrfToken" validate:"required"`
}

type contactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// Contact handles a form submission: origin gate, rate limit, CSRF check,
// content screening, then template assembly and delivery.
func (api *API) Contact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := util.ExtractClientIP(r)
	userAgent := r.UserAgent()

	if !api.origin.Verify(r) {
		api.secLog.Log(ctx, security.Event{
			Type:      "origin_rejected",
			IP:        identity,
			UserAgent: userAgent,
			Severity:  security.SeverityMedium,
			Details:   map[string]any{"origin": r.Header.Get("Origin"), "endpoint": "contact"},
		})
		util.JSONResponse(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
		return
	}

	limit := api.limiter.Check(ctx, identity, api.config.RateLimit.Window, api.config.RateLimit.Max)
	api.writeRateHeaders(w, limit)
	if !limit.Allowed {
		api.rejectRateLimited(ctx, w, identity, userAgent, limit)
		return
	}

	var req ContactRequest
	if err := util.ParseJSON(r, &req); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid request body",
			"details": []string{"body must be valid JSON"},
		})
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	verdict := api.csrf.Verify(ctx, req.CSRFToken, sessionID)
	if !verdict.Valid {
		api.secLog.Log(ctx, security.Event{
			Type:      "csrf_violation",
			IP:        identity,
			UserAgent: userAgent,
			Severity:  security.SeverityMedium,
			Details:   map[string]any{"reason": verdict.Reason, "session_id": sessionID},
		})
		// Deliberately vague: the reason is for the log, not the caller
		util.JSONResponse(w, http.StatusForbidden, map[string]string{"error": "invalid security token"})
		return
	}

	if err := util.ValidateStruct(req); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": util.ValidationDetails(err),
		})
		return
	}

	if security.HoneypotFilled(req.Honeypot) {
		api.spoofSuccess(ctx, w, identity, userAgent, "honeypot")
		return
	}

	if spam, reason := security.DetectSpam(req.Name, req.Subject, req.Message); spam {
		api.spoofSuccess(ctx, w, identity, userAgent, reason)
		return
	}

	email, err := api.assembleEmail(req, identity, userAgent)
	if err != nil {
		api.logger.Error("failed to assemble contact email", "error", err)
		util.JSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
		return
	}

	if err := api.mailer.Send(ctx, api.config.Email.ToAddress, email.Subject, email.Text, email.HTML); err != nil {
		// Detail stays server-side; the caller gets a generic failure
		api.logger.Error("contact email delivery failed", "error", err, "ip", util.MaskIP(identity))
		api.publish(ctx, events.EventEmailFailed, map[string]string{"ip": identity})
		util.JSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
		return
	}

	messageID := uuid.NewString()
	api.publish(ctx, events.EventEmailSent, map[string]string{"message_id": messageID})
	api.logger.Info("contact message delivered", "message_id", messageID, "ip", util.MaskIP(identity))

	util.JSONResponse(w, http.StatusOK, contactResponse{
		Success:   true,
		Message:   "Your message has been sent.",
		MessageID: messageID,
	})
}

func (api *API) writeRateHeaders(w http.ResponseWriter, limit ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(api.config.RateLimit.Max))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(limit.ResetTime.Unix(), 10))
}

func (api *API) rejectRateLimited(ctx context.Context, w http.ResponseWriter, identity, userAgent string, limit ratelimit.Result) {
	retryAfter := limit.RetryAfter(time.Now())
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	payload := map[string]any{
		"error":      "too many requests",
		"retryAfter": retryAfter,
	}
	if limit.Block.Active(time.Now()) {
		payload["blocked"] = true
		payload["escalationLevel"] = limit.Block.EscalationLevel

		api.secLog.Log(ctx, security.Event{
			Type:      "client_blocked",
			IP:        identity,
			UserAgent: userAgent,
			Severity:  security.SeverityMedium,
			Details: map[string]any{
				"escalation_level": limit.Block.EscalationLevel,
				"violations":       limit.Block.Violations,
			},
		})
	}

	util.JSONResponse(w, http.StatusTooManyRequests, payload)
}

// spoofSuccess answers a screened-out submission with a fabricated success
// so automated senders cannot distinguish silent rejection from delivery.
// No email is sent.
func (api *API) spoofSuccess(ctx context.Context, w http.ResponseWriter, identity, userAgent, reason string) {
	api.secLog.Log(ctx, security.Event{
		Type:      "spam_detected",
		IP:        identity,
		UserAgent: userAgent,
		Severity:  security.SeverityMedium,
		Details:   map[string]any{"reason": reason},
	})

	util.JSONResponse(w, http.StatusOK, contactResponse{
		Success:   true,
		Message:   "Your message has been sent.",
		MessageID: uuid.NewString(),
	})
}

func (api *API) assembleEmail(req ContactRequest, identity, userAgent string) (template.Email, error) {
	name := security.SanitizeInput(req.Name)
	subject := security.SanitizeInput(req.Subject)
	message := security.SanitizeInput(req.Message)

	now := time.Now()

	return template.NewBuilder(api.config.AppName).
		Add(template.Header{
			Title:   "New contact message",
			Tagline: api.config.AppName,
		}).
		Add(template.StatusBadge{Label: "passed screening", Tone: template.ToneOK}).
		Add(template.ContactInfo{Name: name, Email: req.Email, Subject: subject}).
		Add(template.Divider{}).
		Add(template.Message{Body: message}).
		Add(template.Divider{}).
		Add(template.SecurityInfo{IP: identity, UserAgent: userAgent, ReceivedAt: now}).
		Add(template.Button{Label: "Reply to " + name, URL: "mailto:" + req.Email}).
		Add(template.Footer{SiteName: api.config.AppName, Year: now.Year()}).
		Build()
}

func (api *API) publish(ctx context.Context, eventType string, payload map[string]string) {
	if api.bus == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := api.bus.Publish(ctx, events.Event{Type: eventType, Payload: raw}); err != nil {
		api.logger.Warn("failed to publish event", "type", eventType, "error", err)
	}
}
