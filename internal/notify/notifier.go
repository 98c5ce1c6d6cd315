package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"marketplace-api/internal/domain"
)

// Notifier is the opaque transactional-message capability. Sends are
// best-effort: the order workflow never fails because a mail bounced.
type Notifier interface {
	Send(ctx context.Context, template, recipient string, data map[string]any) error
}

// SMTPNotifier renders a template and relays it over plain SMTP with a
// bounded dial/write deadline.
type SMTPNotifier struct {
	host    string
	port    int
	from    string
	auth    smtp.Auth
	timeout time.Duration
}

func NewSMTPNotifier(host string, port int, username, password, from string, timeout time.Duration) *SMTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPNotifier{host: host, port: port, from: from, auth: auth, timeout: timeout}
}

func (n *SMTPNotifier) Send(ctx context.Context, template, recipient string, data map[string]any) error {
	subject, body, err := Render(template, data)
	if err != nil {
		return err
	}

	msg := buildMessage(n.from, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("%w: smtp dial: %v", domain.ErrExternalService, err)
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: smtp handshake: %v", domain.ErrExternalService, err)
	}
	defer c.Close()

	if n.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(n.auth); err != nil {
				return fmt.Errorf("%w: smtp auth: %v", domain.ErrExternalService, err)
			}
		}
	}
	if err := c.Mail(n.from); err != nil {
		return fmt.Errorf("%w: smtp mail: %v", domain.ErrExternalService, err)
	}
	if err := c.Rcpt(recipient); err != nil {
		return fmt.Errorf("%w: smtp rcpt: %v", domain.ErrExternalService, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: smtp data: %v", domain.ErrExternalService, err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("%w: smtp write: %v", domain.ErrExternalService, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: smtp close: %v", domain.ErrExternalService, err)
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
