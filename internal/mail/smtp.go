package mail

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/webfolio/contact-gateway/env"
)

// SMTPProvider sends mail over SMTP using credentials from the environment.
// Credentials are checked at construction, so a misconfigured deployment
// fails at the first send attempt rather than at startup.
type SMTPProvider struct {
	from string

	host string
	port int
	user string
	pass string
}

func NewSMTPProvider(fromAddress string) (*SMTPProvider, error) {
	host := strings.TrimSpace(os.Getenv(env.EnvSMTPHost))
	if host == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, env.EnvSMTPHost)
	}

	portStr := strings.TrimSpace(os.Getenv(env.EnvSMTPPort))
	if portStr == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, env.EnvSMTPPort)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid integer: %w", env.EnvSMTPPort, err)
	}

	return &SMTPProvider{
		from: fromAddress,
		host: host,
		port: port,
		user: strings.TrimSpace(os.Getenv(env.EnvSMTPUser)),
		pass: strings.TrimSpace(os.Getenv(env.EnvSMTPPass)),
	}, nil
}

func (s *SMTPProvider) Send(ctx context.Context, to, subject, text, html string) error {
	msg := gomail.NewMsg()

	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)

	// Plain text is required
	msg.SetBodyString(gomail.TypeTextPlain, text)

	// HTML is optional
	if html != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, html)
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithUsername(s.user),
		gomail.WithPassword(s.pass),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
