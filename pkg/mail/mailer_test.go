package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

type fakeClient struct {
	from    string
	rcpts   []string
	body    bytes.Buffer
	authed  bool
	quitted bool
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (f *fakeClient) Mail(from string) error          { f.from = from; return nil }
func (f *fakeClient) Rcpt(to string) error            { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeClient) Data() (io.WriteCloser, error)   { return nopWriteCloser{&f.body}, nil }
func (f *fakeClient) Quit() error                     { f.quitted = true; return nil }
func (f *fakeClient) Close() error                    { return nil }
func (f *fakeClient) StartTLS(*tls.Config) error      { return nil }
func (f *fakeClient) Auth(smtp.Auth) error            { f.authed = true; return nil }
func (f *fakeClient) Extension(string) (bool, string) { return false, "" }

func newTestMailer(t *testing.T, cfg SMTPSettings) (*smtpMailer, *fakeClient) {
	t.Helper()
	m, err := NewSMTPMailer(cfg)
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}
	sm := m.(*smtpMailer)
	client := &fakeClient{}
	sm.dialFn = func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
		left, right := net.Pipe()
		_ = right.Close()
		return left, client, nil
	}
	return sm, client
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host validation error, got %v", err)
	}

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("expected port validation error, got %v", err)
	}

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("expected disabled configuration to succeed: %v", err)
	}
	if !errors.Is(mailer.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrSMTPDisabled) {
		t.Fatal("expected ErrSMTPDisabled")
	}
}

func TestSMTPMailerDefaultTimeout(t *testing.T) {
	sm, _ := newTestMailer(t, SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})
	if sm.cfg.Timeout != 10*time.Second {
		t.Fatalf("expected timeout to be 10s, got %v", sm.cfg.Timeout)
	}
}

func TestSMTPMailerSend(t *testing.T) {
	sm, client := newTestMailer(t, SMTPSettings{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@example.com",
	})

	err := sm.Send(context.Background(), Message{
		To:      []string{"a@example.com", " a@example.com ", "b@example.com"},
		Subject: "Hello",
		Body:    "Body text",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !client.authed || !client.quitted {
		t.Fatal("expected auth and quit to be called")
	}
	if client.from != "no-reply@example.com" {
		t.Fatalf("unexpected from %q", client.from)
	}
	if len(client.rcpts) != 2 {
		t.Fatalf("expected de-duplicated recipients, got %v", client.rcpts)
	}
	if !strings.HasSuffix(client.body.String(), "Body text") {
		t.Fatalf("unexpected body %q", client.body.String())
	}
}

func TestSMTPMailerSendValidatesAddresses(t *testing.T) {
	sm, _ := newTestMailer(t, SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})

	err := sm.Send(context.Background(), Message{To: []string{"  "}})
	if err == nil || !strings.Contains(err.Error(), "at least one recipient") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}

	err = sm.Send(context.Background(), Message{From: "invalid-from", To: []string{"a@example.com"}})
	if err == nil || !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("expected from validation error, got %v", err)
	}
}

func TestFormatMessage(t *testing.T) {
	content := formatMessage("from@example.com", []string{"to@example.com"}, "Subject\r\nBreak", "Body")
	if !strings.Contains(content, "From: from@example.com") {
		t.Fatalf("expected from header, got %q", content)
	}
	if !strings.Contains(content, "Subject: Subject  Break") {
		t.Fatalf("expected sanitised subject, got %q", content)
	}
	if !strings.HasSuffix(content, "Body") {
		t.Fatalf("expected body suffix, got %q", content)
	}
}

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage("jane@example.com", "", "tok-123", 15*time.Minute)
	if len(msg.To) != 1 || msg.To[0] != "jane@example.com" {
		t.Fatalf("unexpected recipients %v", msg.To)
	}
	if !strings.Contains(msg.Body, "Hello User") {
		t.Fatalf("expected fallback name, got %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "tok-123") || !strings.Contains(msg.Body, "15 minutes") {
		t.Fatalf("expected token and expiry in body, got %q", msg.Body)
	}
}

func TestMemoryMailer(t *testing.T) {
	m := NewMemoryMailer()
	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error without recipients")
	}
	if err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "s"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := m.Sent()
	if len(sent) != 1 || sent[0].Subject != "s" {
		t.Fatalf("unexpected sent messages %+v", sent)
	}
}
