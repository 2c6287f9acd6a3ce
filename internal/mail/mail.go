// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP sends through a relay. Auth is skipped when User is empty, which is
// what local catchers like MailHog expect.
type SMTP struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(host, port, user, password, from string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Password: password, From: from, send: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	const op = "mail.SMTP.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	msg := buildMessage(s.From, to, subject, body)
	if err := s.send(net.JoinHostPort(s.Host, s.Port), auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
