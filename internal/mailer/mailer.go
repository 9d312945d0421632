// Package mailer delivers the rendered digest over SMTP, falling back
// to console output when the transport is not configured or the send
// fails. Delivery failure never crashes a run; worst case the report is
// visible in logs instead of an inbox.
package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

// Config holds the mail transport settings. Host, From, and To must all
// be present for a send to be attempted.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Configured reports whether the transport settings are complete.
func (c Config) Configured() bool {
	return c.Host != "" && c.From != "" && c.To != ""
}

// Outcome describes where a report ended up.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeConsole Outcome = "console"
)

// Mailer sends digests.
type Mailer struct {
	cfg Config
	out io.Writer
}

// New builds a mailer. Console fallback writes to stdout.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, out: os.Stdout}
}

// Deliver sends the digest by SMTP when the transport is configured
// and falls back to console output otherwise. A failed send also falls
// back; the error is logged, never returned.
func (m *Mailer) Deliver(ctx context.Context, subject, textBody, htmlBody string) Outcome {
	if !m.cfg.Configured() {
		log.Info().Msg("Mail transport not configured, writing digest to console")
		m.writeConsole(subject, textBody)
		return OutcomeConsole
	}

	if err := m.send(ctx, subject, textBody, htmlBody); err != nil {
		log.Error().
			Err(err).
			Str("host", m.cfg.Host).
			Int("port", m.cfg.Port).
			Str("to", m.cfg.To).
			Msg("Failed to send digest email, falling back to console output")
		m.writeConsole(subject, textBody)
		return OutcomeConsole
	}

	log.Info().Str("to", m.cfg.To).Str("subject", subject).Msg("Digest email sent")
	return OutcomeSent
}

func (m *Mailer) send(ctx context.Context, subject, textBody, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *Mailer) writeConsole(subject, body string) {
	fmt.Fprintf(m.out, "\n--- DIGEST ---\nSubject: %s\n\n%s\n--- END ---\n", subject, body)
}
