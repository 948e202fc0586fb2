// Package mailer delivers confirmation codes out-of-band. The transport is a
// collaborator behind an interface so services and tests never touch SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"reviewhub/internal/config"
)

type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, code string) error
}

// New picks the SMTP transport when a host is configured and the log
// transport otherwise (development).
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &logMailer{logger: logger}
	}
	return &smtpMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		host: cfg.SMTPHost,
		from: cfg.MailFrom,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
	}
}

type smtpMailer struct {
	addr string
	host string
	from string
	user string
	pass string
}

func (m *smtpMailer) SendConfirmationCode(ctx context.Context, email, code string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your confirmation code\r\n\r\nYour confirmation code is: %s\r\n",
		m.from, email, code,
	)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(m.addr, auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// logMailer writes the code to the log instead of sending mail.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendConfirmationCode(ctx context.Context, email, code string) error {
	m.logger.Info("confirmation code issued", "email", email, "code", code)
	return nil
}
