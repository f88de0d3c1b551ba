package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"time"
)

// Sender delivers plain-text mail over SMTP with PLAIN auth.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

// NewSender returns a Sender, or nil when username or password is empty so
// callers can treat unconfigured mail as a disabled feature.
func NewSender(host string, port int, username, password, fromEmail, fromName string) *Sender {
	if username == "" || password == "" {
		return nil
	}
	from := fromEmail
	if from == "" {
		from = username
	}
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

// Send delivers one message. smtp.SendMail has no context support, so the
// dial runs in a goroutine and the context can abandon the wait.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	var buf bytes.Buffer
	buf.WriteString("From: " + s.fromName + " <" + s.from + ">\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)

	addr := s.host + ":" + strconv.Itoa(s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, s.from, []string{to}, buf.Bytes()) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: send to %s: %w", to, err)
		}
		return nil
	}
}
