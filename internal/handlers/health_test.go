package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webfolio/contact-gateway/env"
)

func getHealth(t *testing.T, router http.Handler) (int, healthResponse) {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return w.Code, resp
}

func TestHealthDegradedOnMemoryStorage(t *testing.T) {
	t.Setenv(env.EnvSMTPHost, "smtp.example.com")
	t.Setenv(env.EnvSMTPPort, "587")

	_, router := newTestAPI(t, &recordingMailer{})

	code, resp := getHealth(t, router)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	// Email is configured but memory storage and a missing event bus
	// both degrade the deployment
	if resp.Status != "degraded" {
		t.Errorf("overall = %q, want degraded", resp.Status)
	}
	if resp.Subsystems["email"].Status != statusOK {
		t.Errorf("email = %+v", resp.Subsystems["email"])
	}
	if resp.Subsystems["storage"].Status != statusWarning {
		t.Errorf("storage = %+v", resp.Subsystems["storage"])
	}
}

func TestHealthUnhealthyWithoutEmailConfig(t *testing.T) {
	t.Setenv(env.EnvSMTPHost, "")
	t.Setenv(env.EnvSMTPPort, "")

	_, router := newTestAPI(t, &recordingMailer{})

	code, resp := getHealth(t, router)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("overall = %q, want unhealthy", resp.Status)
	}
	if resp.Subsystems["email"].Status != statusError {
		t.Errorf("email = %+v", resp.Subsystems["email"])
	}
}
