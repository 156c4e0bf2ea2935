package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPSender delivers over plain SMTP with optional AUTH PLAIN. No retry:
// the caller decided delivery is best effort.
type SMTPSender struct {
	addr     string
	from     string
	username string
	password string
}

func NewSMTPSender(addr, from, username, password string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from, username: username, password: password}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &DeliveryError{Driver: "smtp", Err: err}
	}
	body, err := renderBody(msg)
	if err != nil {
		return "", &DeliveryError{Driver: "smtp", Err: err}
	}

	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return "", &DeliveryError{Driver: "smtp", Err: fmt.Errorf("invalid smtp address %q: %w", s.addr, err)}
	}

	id := uuid.NewString()
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", s.from)
	fmt.Fprintf(&sb, "To: %s\r\n", msg.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&sb, "Message-ID: <%s@%s>\r\n", id, host)
	fmt.Fprintf(&sb, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, host)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{msg.To}, []byte(sb.String())); err != nil {
		return "", &DeliveryError{Driver: "smtp", Err: err}
	}
	return id, nil
}
