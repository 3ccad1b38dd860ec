package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// SMTPMailer sends plain-text mail through an SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(addr, username, password, from string) *SMTPMailer {
	var a smtp.Auth
	if username != "" {
		host, _, _ := net.SplitHostPort(addr)
		a = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: addr, auth: a, from: from, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(_ context.Context, e Email) error {
	if e.To == "" {
		return fmt.Errorf("email has no recipient")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(e.Body, "\n", "\r\n"))

	if err := m.send(m.addr, m.auth, m.from, []string{e.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", e.To, err)
	}
	return nil
}

// LogMailer writes mail to the log; used when no SMTP relay is configured.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.log.WithFields(logrus.Fields{
		"to":      e.To,
		"subject": e.Subject,
	}).Info(e.Body)
	return nil
}
