// Package mail delivers outbound transactional mail. The subsystem
// treats delivery as fire-and-forget: a failure is surfaced to the
// caller once and never retried automatically.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"
)

// Mailer sends a templated message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, templateName string, vars map[string]string) error
}

var templates = map[string]struct {
	subject string
	body    string
}{
	"verify": {
		subject: "OTP",
		body:    "Your Statroom verification code is {{.otp}}. It expires in 10 minutes.",
	},
	"invite": {
		subject: "You have been invited",
		body:    "{{.inviter}} invited you to join {{.team}} on Statroom. Use code {{.otp}} to accept.",
	},
}

// SMTP is the production Mailer backed by a plain SMTP relay.
type SMTP struct {
	Addr string // host:port of the relay
	From string
	Auth smtp.Auth
}

// NewSMTP returns an SMTP mailer.
func NewSMTP(addr, from string, auth smtp.Auth) *SMTP {
	return &SMTP{Addr: addr, From: from, Auth: auth}
}

// Send renders the named template and submits the message. Unknown
// template names are a programming error, reported immediately.
func (s *SMTP) Send(_ context.Context, to, templateName string, vars map[string]string) error {
	subject, body, err := render(templateName, vars)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func render(templateName string, vars map[string]string) (subject, body string, err error) {
	tpl, ok := templates[templateName]
	if !ok {
		return "", "", fmt.Errorf("mail template %q not found", templateName)
	}

	parsed, err := template.New(templateName).Parse(tpl.body)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, vars); err != nil {
		return "", "", err
	}

	return tpl.subject, buf.String(), nil
}

// Log is a Mailer that records the send instead of delivering it.
// Useful for development and as the builder default in tests.
type Log struct {
	Logger *slog.Logger
}

// Send logs the would-be delivery and succeeds.
func (l *Log) Send(ctx context.Context, to, templateName string, vars map[string]string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail send skipped", "to", to, "template", templateName)
	return nil
}
