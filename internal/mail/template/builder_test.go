package template

import (
	"strings"
	"testing"
	"time"
)

func TestBuildOrdering(t *testing.T) {
	email, err := NewBuilder("Portfolio").
		Add(Header{Title: "New message"}).
		Add(ContactInfo{Name: "Jane", Email: "jane@example.com", Subject: "Hello"}).
		Add(Divider{}).
		Add(Message{Body: "I have a project for you."}).
		Add(Footer{SiteName: "Portfolio", Year: 2026}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Components appear in insertion order in both renderings
	html := email.HTML
	if !(strings.Index(html, "New message") < strings.Index(html, "jane@example.com") &&
		strings.Index(html, "jane@example.com") < strings.Index(html, "I have a project")) {
		t.Error("HTML components out of insertion order")
	}

	text := email.Text
	if !(strings.Index(text, "New message") < strings.Index(text, "jane@example.com") &&
		strings.Index(text, "jane@example.com") < strings.Index(text, "I have a project")) {
		t.Error("text components out of insertion order")
	}
}

func TestBuildSubject(t *testing.T) {
	t.Run("prefers contact info subject", func(t *testing.T) {
		email, err := NewBuilder("Portfolio").
			Add(ContactInfo{Name: "Jane", Email: "jane@example.com", Subject: "Project inquiry"}).
			Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if email.Subject != "Project inquiry" {
			t.Errorf("subject = %q", email.Subject)
		}
	})

	t.Run("falls back to brand subject", func(t *testing.T) {
		email, err := NewBuilder("Portfolio").
			Add(Message{Body: "hi"}).
			Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if email.Subject != "New contact message via Portfolio" {
			t.Errorf("subject = %q", email.Subject)
		}
	})
}

func TestBuildEscapesHTML(t *testing.T) {
	email, err := NewBuilder("Portfolio").
		Add(Message{Body: `<script>alert(1)</script>`}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(email.HTML, "<script>") {
		t.Error("message body must be escaped in HTML rendering")
	}
	if !strings.Contains(email.Text, "<script>") {
		t.Error("plain text rendering is not escaped")
	}
}

func TestComponentRendering(t *testing.T) {
	received := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	components := []struct {
		component Component
		inHTML    string
		inText    string
	}{
		{Header{Title: "T", Tagline: "tag"}, "tag", "tag"},
		{SecurityInfo{IP: "203.0.113.7", UserAgent: "UA", ReceivedAt: received}, "203.0.113.7", "203.0.113.7"},
		{Button{Label: "Reply", URL: "mailto:jane@example.com"}, "Reply", "mailto:jane@example.com"},
		{StatusBadge{Label: "clean", Tone: ToneOK}, "clean", "[clean]"},
		{StatusBadge{Label: "review", Tone: ToneWarning}, "#d97706", "[review]"},
		{SocialLinks{Links: []SocialLink{{Label: "GitHub", URL: "https://github.com/jane"}}}, "github.com/jane", "GitHub"},
		{Divider{}, "<hr", "---"},
	}

	for _, tt := range components {
		t.Run(tt.component.Kind(), func(t *testing.T) {
			html, err := tt.component.HTML()
			if err != nil {
				t.Fatalf("html: %v", err)
			}
			if !strings.Contains(html, tt.inHTML) {
				t.Errorf("HTML %q missing %q", html, tt.inHTML)
			}
			if text := tt.component.Text(); !strings.Contains(text, tt.inText) {
				t.Errorf("text %q missing %q", text, tt.inText)
			}
		})
	}
}
