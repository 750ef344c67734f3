package mail

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/webfolio/contact-gateway/env"
)

// ResendProvider sends mail through the Resend API.
type ResendProvider struct {
	from   string
	client *resend.Client
}

func NewResendProvider(fromAddress string) (*ResendProvider, error) {
	apiKey := strings.TrimSpace(os.Getenv(env.EnvResendApiKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, env.EnvResendApiKey)
	}

	return &ResendProvider{
		from:   fromAddress,
		client: resend.NewClient(apiKey),
	}, nil
}

func (r *ResendProvider) Send(ctx context.Context, to, subject, text, html string) error {
	if text == "" && html == "" {
		return fmt.Errorf("email must have at least a text or html body")
	}

	params := &resend.SendEmailRequest{
		To:      []string{to},
		From:    r.from,
		Subject: subject,
		Text:    text,
		Html:    html,
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend send failed: empty response")
	}

	return nil
}
