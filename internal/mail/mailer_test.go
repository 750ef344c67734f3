package mail

import (
	"context"
	"errors"
	"testing"
)

type stubMailer struct {
	err   error
	calls int
}

func (m *stubMailer) Send(ctx context.Context, to, subject, text, html string) error {
	m.calls++
	return m.err
}

func TestServiceUsesPrimary(t *testing.T) {
	primary := &stubMailer{}
	fallback := &stubMailer{}
	s := NewService(nil, primary, fallback)

	if err := s.Send(context.Background(), "me@example.com", "subj", "text", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if primary.calls != 1 || fallback.calls != 0 {
		t.Errorf("calls = primary %d fallback %d", primary.calls, fallback.calls)
	}
}

func TestServiceFallsBack(t *testing.T) {
	primary := &stubMailer{err: errors.New("smtp down")}
	fallback := &stubMailer{}
	s := NewService(nil, primary, fallback)

	if err := s.Send(context.Background(), "me@example.com", "subj", "text", ""); err != nil {
		t.Fatalf("fallback should have rescued the send: %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d", fallback.calls)
	}
}

func TestServiceReturnsPrimaryErrorWhenBothFail(t *testing.T) {
	primaryErr := errors.New("smtp down")
	primary := &stubMailer{err: primaryErr}
	fallback := &stubMailer{err: errors.New("resend down")}
	s := NewService(nil, primary, fallback)

	err := s.Send(context.Background(), "me@example.com", "subj", "text", "")
	if !errors.Is(err, primaryErr) {
		t.Errorf("error should wrap the primary failure, got %v", err)
	}
}

func TestServiceWithoutProvider(t *testing.T) {
	s := NewService(nil, nil, nil)
	if err := s.Send(context.Background(), "me@example.com", "s", "t", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("got %v, want ErrNotConfigured", err)
	}
}
