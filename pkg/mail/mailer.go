package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrSMTPDisabled signals that SMTP delivery is disabled via configuration.
var ErrSMTPDisabled = errors.New("smtp: delivery disabled")

// Message represents an outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer defines behaviour for sending email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordResetMessage renders the email carrying a password reset token.
func PasswordResetMessage(to, name, token string, ttl time.Duration) Message {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "User"
	}
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	body := fmt.Sprintf("Hello %s,\n\n"+
		"You have requested to reset your password for CareTrack.\n\n"+
		"Your password reset token is: %s\n\n"+
		"Please use this token to reset your password. This token will expire in %d minutes.\n\n"+
		"If you did not request this password reset, please ignore this email.\n\n"+
		"Best regards,\nCareTrack Team\n", name, token, minutes)

	return Message{
		To:      []string{to},
		Subject: "CareTrack - Password Reset Request",
		Body:    body,
	}
}

// MemoryMailer keeps sent messages in memory. Used when SMTP is disabled and in tests.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Message
}

// NewMemoryMailer constructs an empty MemoryMailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// Send records msg.
func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	if len(uniqueAddresses(msg.To)) == 0 {
		return errors.New("mail: at least one recipient is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, exists := seen[addr]; exists {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}
