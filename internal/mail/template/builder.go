package template

import (
	"fmt"
	"strings"
)

// Email is the assembled multi-part message.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Builder accumulates components and renders them in insertion order.
// A builder is single-use per message and carries no shared state.
type Builder struct {
	brand      string
	components []Component
}

func NewBuilder(brand string) *Builder {
	return &Builder{brand: brand}
}

// Add appends a component. Returns the builder for chaining.
func (b *Builder) Add(c Component) *Builder {
	b.components = append(b.components, c)
	return b
}

// Build renders the HTML and plain-text documents plus the subject line.
// The subject prefers the first ContactInfo component's subject; without
// one it falls back to a generic subject naming the site brand.
func (b *Builder) Build() (Email, error) {
	var html strings.Builder
	var text strings.Builder

	html.WriteString(`<!DOCTYPE html><html><body style="margin:0;background:#ececf1;font-family:Helvetica,Arial,sans-serif"><div style="max-width:600px;margin:24px auto;background:#ffffff;border-radius:8px">`)

	for _, component := range b.components {
		fragment, err := component.HTML()
		if err != nil {
			return Email{}, fmt.Errorf("build %s component: %w", component.Kind(), err)
		}
		html.WriteString(fragment)
		text.WriteString(component.Text())
	}

	html.WriteString(`</div></body></html>`)

	return Email{
		Subject: b.subject(),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (b *Builder) subject() string {
	for _, component := range b.components {
		if info, ok := component.(ContactInfo); ok && info.Subject != "" {
			return info.Subject
		}
	}
	return fmt.Sprintf("New contact message via %s", b.brand)
}
