// Package mailer delivers account verification mail over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/internal/logging"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const verificationSubject = "Verify your email address"

// Sender sends the verification link to a freshly registered user.
type Sender interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// New returns an SMTP sender, or a sender that only logs when SMTP is not configured.
func New(cfg config.SMTPConfig) Sender {
	if !cfg.Enabled() {
		return logOnly{}
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func (s *SMTP) SendVerification(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(VerificationMessage(s.from, to, name, link)); err != nil {
		return fmt.Errorf("send verification mail to %s: %w", to, err)
	}
	return nil
}

// VerificationMessage builds the HTML verification mail.
func VerificationMessage(from, to, name, link string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p><p>Please confirm your email address by opening the link below.</p><p><a href="%s">%s</a></p>`,
		html.EscapeString(name), html.EscapeString(link), html.EscapeString(link),
	))
	m.AddAlternative("text/plain", fmt.Sprintf("Hi %s,\n\nPlease confirm your email address: %s\n", name, link))
	return m
}

type logOnly struct{}

func (logOnly) SendVerification(_ context.Context, to, _, link string) error {
	logging.L().Info("smtp disabled, verification mail not sent",
		zap.String("to", to),
		zap.String("link", link),
	)
	return nil
}
