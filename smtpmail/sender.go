// Package smtpmail is an SMTP-backed implementation of the engine's
// EmailSender capability. Delivery failures are returned to the caller;
// nothing here is fire-and-forget.
package smtpmail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// Config defines a public type used by mailgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers plain-text mail over authenticated SMTP.
type Sender struct {
	config Config
	addr   string
}

// New creates a [Sender] for the given SMTP endpoint.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, errors.New("smtp host and port required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address required")
	}
	return &Sender{
		config: cfg,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}, nil
}

// Send delivers one message and honors ctx cancellation. The SMTP dialog
// itself cannot be interrupted mid-flight by net/smtp, so cancellation is
// observed at the call boundary; the engine's delivery timeout bounds the
// overall wait.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// RFC 822 headers separated from the body by one blank line, CRLF line
	// endings throughout.
	message := strings.Join([]string{
		fmt.Sprintf("From: %s", s.config.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, auth, s.config.From, []string{to}, []byte(message))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
