// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"

	"solarshare/internal/config"
	"solarshare/internal/observability"

	"gopkg.in/gomail.v2"
)

// Message is one outgoing email.
type Message struct {
	Template string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends through an SMTP relay with gomail.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer builds a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	err := m.dialer.DialAndSend(gm)
	record(msg.Template, err)
	return err
}

// LogMailer writes messages to the log instead of sending them. It keeps the
// messages it saw so development tooling can show confirmation links.
type LogMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer returns a LogMailer writing to logger, or slog.Default when nil.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "mail (not sent, SMTP disabled)",
		slog.String("template", msg.Template),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	record(msg.Template, nil)
	return nil
}

// Sent returns a copy of the messages logged so far.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// New picks SMTP when SMTP_HOST is configured and the log mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg == nil || cfg.SMTPHost == "" {
		return NewLogMailer(nil)
	}
	return NewSMTPMailer(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

func record(template string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.MailsSent.WithLabelValues(template, result).Inc()
}
