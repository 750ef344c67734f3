// Package template assembles the contact notification email from an
// ordered list of typed components. Each component renders independently
// to HTML and plain text; the builder concatenates them in insertion order.
package template

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	"time"
)

// Component is one typed block of the outgoing email. Implementations are
// pure: payload in, markup out, no shared state.
type Component interface {
	// Kind names the component variant
	Kind() string
	// HTML renders the component's HTML fragment with escaping applied
	HTML() (string, error)
	// Text renders the component's plain-text fragment
	Text() string
}

var htmlTpls = htmltemplate.Must(htmltemplate.New("components").Parse(`
{{define "header"}}<div style="background:#1a1a2e;color:#ffffff;padding:24px;border-radius:8px 8px 0 0"><h1 style="margin:0;font-size:20px">{{.Title}}</h1>{{if .Tagline}}<p style="margin:4px 0 0;color:#a0a0c0;font-size:13px">{{.Tagline}}</p>{{end}}</div>{{end}}
{{define "contact"}}<table style="width:100%;padding:16px 24px;font-size:14px"><tr><td style="color:#666;width:80px">From</td><td><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;</td></tr>{{if .Subject}}<tr><td style="color:#666">Subject</td><td>{{.Subject}}</td></tr>{{end}}</table>{{end}}
{{define "message"}}<div style="padding:16px 24px;font-size:14px;line-height:1.6;white-space:pre-wrap">{{.Body}}</div>{{end}}
{{define "security"}}<div style="padding:12px 24px;background:#f7f7fa;font-size:12px;color:#888"><p style="margin:0">IP: {{.IP}}</p><p style="margin:0">User-Agent: {{.UserAgent}}</p><p style="margin:0">Received: {{.FormattedTime}}</p></div>{{end}}
{{define "divider"}}<hr style="border:none;border-top:1px solid #e0e0e8;margin:0 24px">{{end}}
{{define "footer"}}<div style="padding:16px 24px;font-size:12px;color:#999;border-radius:0 0 8px 8px">&copy; {{.Year}} {{.SiteName}} &middot; sent by the contact form</div>{{end}}
{{define "button"}}<div style="padding:16px 24px"><a href="{{.URL}}" style="display:inline-block;background:#4f46e5;color:#ffffff;padding:10px 20px;border-radius:6px;text-decoration:none;font-size:14px">{{.Label}}</a></div>{{end}}
{{define "badge"}}<div style="padding:8px 24px"><span style="background:{{.toneColor}};color:#ffffff;padding:2px 10px;border-radius:10px;font-size:11px;text-transform:uppercase">{{.Label}}</span></div>{{end}}
{{define "social"}}<div style="padding:12px 24px;font-size:13px">{{range .Links}}<a href="{{.URL}}" style="color:#4f46e5;margin-right:12px">{{.Label}}</a>{{end}}</div>{{end}}
`))

func renderHTML(name string, data any) (string, error) {
	var b strings.Builder
	if err := htmlTpls.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

// Header opens the email with the site brand.
type Header struct {
	Title   string
	Tagline string
}

func (c Header) Kind() string { return "header" }

func (c Header) HTML() (string, error) { return renderHTML("header", c) }

func (c Header) Text() string {
	if c.Tagline != "" {
		return c.Title + "\n" + c.Tagline + "\n"
	}
	return c.Title + "\n"
}

// ContactInfo carries the sender's identity and chosen subject. Its
// Subject field drives the email's subject line when present.
type ContactInfo struct {
	Name    string
	Email   string
	Subject string
}

func (c ContactInfo) Kind() string { return "contact" }

func (c ContactInfo) HTML() (string, error) { return renderHTML("contact", c) }

func (c ContactInfo) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", c.Name, c.Email)
	if c.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", c.Subject)
	}
	return b.String()
}

// Message is the visitor's message body.
type Message struct {
	Body string
}

func (c Message) Kind() string { return "message" }

func (c Message) HTML() (string, error) { return renderHTML("message", c) }

func (c Message) Text() string { return c.Body + "\n" }

// SecurityInfo records the request context the submission arrived with.
type SecurityInfo struct {
	IP         string
	UserAgent  string
	ReceivedAt time.Time
}

// FormattedTime is referenced from the HTML template.
func (c SecurityInfo) FormattedTime() string {
	return c.ReceivedAt.UTC().Format(time.RFC1123)
}

func (c SecurityInfo) Kind() string { return "security" }

func (c SecurityInfo) HTML() (string, error) { return renderHTML("security", c) }

func (c SecurityInfo) Text() string {
	return fmt.Sprintf("IP: %s\nUser-Agent: %s\nReceived: %s\n", c.IP, c.UserAgent, c.FormattedTime())
}

// Divider is a horizontal separator.
type Divider struct{}

func (c Divider) Kind() string { return "divider" }

func (c Divider) HTML() (string, error) { return renderHTML("divider", c) }

func (c Divider) Text() string { return strings.Repeat("-", 40) + "\n" }

// Footer closes the email.
type Footer struct {
	SiteName string
	Year     int
}

func (c Footer) Kind() string { return "footer" }

func (c Footer) HTML() (string, error) { return renderHTML("footer", c) }

func (c Footer) Text() string {
	return fmt.Sprintf("(c) %d %s - sent by the contact form\n", c.Year, c.SiteName)
}

// Button is a call-to-action link, typically "reply to sender".
type Button struct {
	Label string
	URL   string
}

func (c Button) Kind() string { return "button" }

func (c Button) HTML() (string, error) { return renderHTML("button", c) }

func (c Button) Text() string { return fmt.Sprintf("%s: %s\n", c.Label, c.URL) }

// BadgeTone selects the status badge color.
type BadgeTone string

const (
	ToneOK      BadgeTone = "ok"
	ToneWarning BadgeTone = "warning"
)

// StatusBadge marks the submission's screening outcome.
type StatusBadge struct {
	Label string
	Tone  BadgeTone
}

func (c StatusBadge) Kind() string { return "badge" }

func (c StatusBadge) HTML() (string, error) {
	color := "#16a34a"
	if c.Tone == ToneWarning {
		color = "#d97706"
	}
	return renderHTML("badge", map[string]any{
		"Label":     c.Label,
		"toneColor": htmltemplate.CSS(color),
	})
}

func (c StatusBadge) Text() string { return "[" + c.Label + "]\n" }

// SocialLink is one entry in a SocialLinks component.
type SocialLink struct {
	Label string
	URL   string
}

// SocialLinks renders the site owner's profile links.
type SocialLinks struct {
	Links []SocialLink
}

func (c SocialLinks) Kind() string { return "social" }

func (c SocialLinks) HTML() (string, error) { return renderHTML("social", c) }

func (c SocialLinks) Text() string {
	var b strings.Builder
	for _, link := range c.Links {
		fmt.Fprintf(&b, "%s: %s\n", link.Label, link.URL)
	}
	return b.String()
}
