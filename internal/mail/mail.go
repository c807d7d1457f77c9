// Package mail sends board share notifications over SMTP.
package mail

import (
	"fmt"
	"net/smtp"

	"github.com/deeply-app/deeply/internal/config"
)

// Mailer sends HTML mail through the configured SMTP relay.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// New builds a Mailer from server config. Enabled reports whether
// the config carries enough to actually send.
func New(cfg *config.Config) *Mailer {
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

// Enabled reports whether SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.host != "" && m.from != ""
}

// Send delivers a single HTML message.
func (m *Mailer) Send(to, subject, html string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp not configured")
	}

	addr := m.host + ":" + m.port

	msg := "From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
