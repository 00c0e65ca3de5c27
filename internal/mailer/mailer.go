// Package mailer sends transactional email (account confirmation, password
// reset) over SMTP. Settings come from config; when no SMTP host is
// configured the mailer reports itself unconfigured and callers skip the
// email step instead of failing registration.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/finaccosolutions/portal/internal/config"
)

// Sender is the interface other packages use to send email.
type Sender interface {
	SendMail(ctx context.Context, to []string, subject, body string) error
	IsConfigured() bool
}

// SMTPMailer implements Sender over STARTTLS SMTP.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// New creates a mailer from the given SMTP settings.
func New(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// IsConfigured returns true when an SMTP host is set.
func (m *SMTPMailer) IsConfigured() bool {
	return m.cfg.Host != ""
}

// SendMail sends an HTML email to the given recipients. The body is sent as
// text/html so confirmation emails can carry the styled template.
func (m *SMTPMailer) SendMail(ctx context.Context, to []string, subject, body string) error {
	if !m.IsConfigured() {
		return fmt.Errorf("smtp is not configured")
	}

	from := mail.Address{Name: "Finacco Solutions", Address: m.cfg.From}

	// Build RFC 2822 message.
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	return m.sendStartTLS(ctx, addr, from.Address, to, msg.String())
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (m *SMTPMailer) sendStartTLS(ctx context.Context, addr, from string, to []string, msg string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if m.cfg.User != "" {
		auth := gosmtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", recipient, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}
