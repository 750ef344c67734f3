// Package csrf implements the double-submit token store for the contact
// form: a session identifier correlates the browser's token request with
// its later form submission, and the stored token must match on both value
// and session before a submission is accepted.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/webfolio/contact-gateway/internal/storage"
)

// Verification failure reasons, enumerable for observability. Verification
// never panics or surfaces storage errors to callers; every failure mode
// maps to one of these.
const (
	ReasonMissingToken     = "missing_token"
	ReasonInvalidSession   = "invalid_session"
	ReasonTokenExpired     = "token_expired"
	ReasonTokenMismatch    = "token_mismatch"
	ReasonSessionMismatch  = "session_mismatch"
	ReasonStoreUnavailable = "store_unavailable"
)

const (
	tokenBytes      = 32
	sessionIDLength = 16
)

// Token is an issued CSRF token. SessionID must equal the storage key the
// record lives under; Verify fails closed when it does not.
type Token struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// VerifyResult is the outcome of a token verification.
type VerifyResult struct {
	Valid  bool
	Reason string
}

// Service issues and verifies per-session CSRF tokens backed by the shared
// key-value store.
type Service struct {
	store         storage.KeyValueStore
	prefix        string
	ttl           time.Duration
	refreshWindow time.Duration
}

// Options configures the token service.
type Options struct {
	Prefix        string
	TokenTTL      time.Duration
	RefreshWindow time.Duration
}

func NewService(store storage.KeyValueStore, opts Options) *Service {
	if opts.Prefix == "" {
		opts.Prefix = "csrf:"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 1 * time.Hour
	}
	if opts.RefreshWindow == 0 {
		opts.RefreshWindow = 5 * time.Minute
	}
	return &Service{
		store:         store,
		prefix:        opts.Prefix,
		ttl:           opts.TokenTTL,
		refreshWindow: opts.RefreshWindow,
	}
}

// GenerateSessionID derives a correlation handle from the client identity,
// user agent and current time. It is deliberately not a secret: the token
// is the secret, the session ID only keys it.
func GenerateSessionID(clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(clientIP + "|" + userAgent + "|" + strconv.FormatInt(time.Now().UnixNano(), 10)))
	return hex.EncodeToString(sum[:])[:sessionIDLength]
}

// Generate issues a fresh token for a session, replacing any prior one.
func (s *Service) Generate(ctx context.Context, sessionID string) (*Token, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id must not be empty")
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &Token{
		Token:     hex.EncodeToString(buf),
		SessionID: sessionID,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	// Drop the previous token's reverse index before overwriting
	if prior, err := s.load(ctx, sessionID); err == nil && prior != nil {
		_ = s.store.Delete(ctx, s.tokenKey(prior.Token))
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return nil, err
	}

	// The record outlives the token's logical expiry so verification can
	// still observe it and report token_expired instead of an unknown
	// session; eviction happens on that first post-expiry verification.
	retention := s.ttl + s.refreshWindow
	if err := s.store.Set(ctx, s.sessionKey(sessionID), string(raw), &retention); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	// Reverse index lets verification distinguish a wrong session from a
	// wrong token
	if err := s.store.Set(ctx, s.tokenKey(token.Token), sessionID, &retention); err != nil {
		return nil, fmt.Errorf("failed to store token index: %w", err)
	}

	return token, nil
}

// Verify checks a submitted token against the stored record for the given
// session. It fails closed on every anomaly, including storage errors.
// An expired token is evicted as a side effect.
func (s *Service) Verify(ctx context.Context, token, sessionID string) VerifyResult {
	if token == "" {
		return VerifyResult{Reason: ReasonMissingToken}
	}
	if sessionID == "" {
		return VerifyResult{Reason: ReasonInvalidSession}
	}

	stored, err := s.load(ctx, sessionID)
	if err != nil {
		return VerifyResult{Reason: ReasonStoreUnavailable}
	}
	if stored == nil {
		// The session has no token. If the token itself is known under a
		// different session, report the mismatch distinctly.
		if owner, ok := s.tokenOwner(ctx, token); ok && owner != sessionID {
			return VerifyResult{Reason: ReasonSessionMismatch}
		}
		return VerifyResult{Reason: ReasonInvalidSession}
	}

	if stored.Expired(time.Now()) {
		s.evict(ctx, stored)
		return VerifyResult{Reason: ReasonTokenExpired}
	}

	// Defense against store confusion: the record must belong to the key
	// it was fetched under
	if stored.SessionID != sessionID {
		return VerifyResult{Reason: ReasonSessionMismatch}
	}

	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(token)) != 1 {
		if owner, ok := s.tokenOwner(ctx, token); ok && owner != sessionID {
			return VerifyResult{Reason: ReasonSessionMismatch}
		}
		return VerifyResult{Reason: ReasonTokenMismatch}
	}

	return VerifyResult{Valid: true}
}

// Refresh re-issues the session's token when it is close to expiry.
// Returns the existing token unchanged otherwise, or nil when the session
// has no token at all.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Token, error) {
	stored, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	if time.Until(stored.ExpiresAt) > s.refreshWindow {
		return stored, nil
	}

	return s.Generate(ctx, sessionID)
}

// CleanupExpired opportunistically sweeps expired records. The Redis
// backend expires keys natively, so the sweep only does work on stores
// that implement Sweeper.
func (s *Service) CleanupExpired() int {
	if sweeper, ok := s.store.(storage.Sweeper); ok {
		return sweeper.Sweep(time.Now())
	}
	return 0
}

func (s *Service) sessionKey(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *Service) tokenKey(token string) string {
	return s.prefix + "token:" + token
}

func (s *Service) load(ctx context.Context, sessionID string) (*Token, error) {
	raw, found, err := s.store.Get(ctx, s.sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var token Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		_ = s.store.Delete(ctx, s.sessionKey(sessionID))
		return nil, nil
	}
	return &token, nil
}

func (s *Service) tokenOwner(ctx context.Context, token string) (string, bool) {
	owner, found, err := s.store.Get(ctx, s.tokenKey(token))
	if err != nil || !found {
		return "", false
	}
	return owner, true
}

func (s *Service) evict(ctx context.Context, token *Token) {
	_ = s.store.Delete(ctx, s.sessionKey(token.SessionID))
	_ = s.store.Delete(ctx, s.tokenKey(token.Token))
}
