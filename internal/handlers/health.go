package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/webfolio/contact-gateway/config"
	"github.com/webfolio/contact-gateway/env"
	"github.com/webfolio/contact-gateway/internal/util"
)

type subsystemStatus string

const (
	statusOK      subsystemStatus = "ok"
	statusWarning subsystemStatus = "warning"
	statusError   subsystemStatus = "error"
)

type subsystemCheck struct {
	Status  subsystemStatus `json:"status"`
	Message string          `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                    `json:"status"`
	Subsystems map[string]subsystemCheck `json:"subsystems"`
}

// pinger is implemented by storage backends with a reachability probe.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports coarse configuration-presence checks per subsystem.
// It requires no auth and never exposes secrets, only presence.
func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	subsystems := map[string]subsystemCheck{
		"email":     api.checkEmail(),
		"storage":   api.checkStorage(r.Context()),
		"event_bus": api.checkEventBus(),
	}

	overall := "healthy"
	status := http.StatusOK
	for _, check := range subsystems {
		switch check.Status {
		case statusError:
			overall = "unhealthy"
			status = http.StatusServiceUnavailable
		case statusWarning:
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	util.JSONResponse(w, status, healthResponse{
		Status:     overall,
		Subsystems: subsystems,
	})
}

func (api *API) checkEmail() subsystemCheck {
	if api.config.Email.ToAddress == "" {
		return subsystemCheck{Status: statusError, Message: "recipient address is not configured"}
	}

	switch api.config.Email.Provider {
	case config.EmailProviderResend:
		if os.Getenv(env.EnvResendApiKey) == "" {
			return subsystemCheck{Status: statusError, Message: "resend api key is not configured"}
		}
	default:
		if os.Getenv(env.EnvSMTPHost) == "" || os.Getenv(env.EnvSMTPPort) == "" {
			return subsystemCheck{Status: statusError, Message: "smtp credentials are not configured"}
		}
	}

	if api.config.Email.FromAddress == "" {
		return subsystemCheck{Status: statusWarning, Message: "sender address is not configured"}
	}

	return subsystemCheck{Status: statusOK}
}

func (api *API) checkStorage(ctx context.Context) subsystemCheck {
	if p, ok := api.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return subsystemCheck{Status: statusError, Message: "storage backend unreachable"}
		}
		return subsystemCheck{Status: statusOK}
	}

	// In-memory state neither survives restarts nor spans instances
	return subsystemCheck{Status: statusWarning, Message: "in-memory storage, single instance only"}
}

func (api *API) checkEventBus() subsystemCheck {
	if api.bus == nil {
		return subsystemCheck{Status: statusWarning, Message: "event bus disabled, metrics sinks inactive"}
	}
	return subsystemCheck{Status: statusOK}
}
