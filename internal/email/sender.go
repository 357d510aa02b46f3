package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/kichiro01/ToPick-api/internal/config"
)

var ErrNotConfigured = errors.New("email is not configured")

// Sender delivers mail through the operator's SMTP account.
type Sender struct {
	cfg  config.MailConfig
	send func(m *gomail.Message) error
}

func NewSender(cfg config.MailConfig) *Sender {
	dialer := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Address, cfg.ApplicationPassword)
	return &Sender{cfg: cfg, send: func(m *gomail.Message) error { return dialer.DialAndSend(m) }}
}

func (s *Sender) Send(ctx context.Context, to, subject, text, html string) error {
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Address)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if strings.TrimSpace(html) != "" {
		m.AddAlternative("text/html", html)
	}

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
