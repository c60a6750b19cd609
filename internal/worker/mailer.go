package worker

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// SMTPMailer sends notification emails through a plain SMTP relay.
type SMTPMailer struct {
	addr   string
	sender string
}

func NewSMTPMailer(addr, sender string) *SMTPMailer {
	return &SMTPMailer{addr: addr, sender: sender}
}

func (m *SMTPMailer) SendMail(ctx context.Context, recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.sender, recipient, subject, body)
	if err := smtp.SendMail(m.addr, nil, m.sender, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them. Used in
// development and when no relay is configured.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendMail(ctx context.Context, recipient, subject, body string) error {
	m.logger.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Msg("email (log only)")
	return nil
}
