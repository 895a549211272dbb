package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// implicitTLSPort is the SMTPS port; other ports upgrade with STARTTLS when
// the server offers it.
const implicitTLSPort = 465

// SMTP implements Sender over an SMTP relay.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

// NewSMTP creates a new SMTP sender
func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  30 * time.Second,
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	dialer := &net.Dialer{Timeout: s.timeout}

	var conn net.Conn
	var err error
	if s.port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	conn.SetDeadline(sessionDeadline(ctx, time.Now(), s.timeout))

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if s.port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	for _, to := range msg.To {
		if err := c.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", to, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	return c.Quit()
}

// sessionDeadline bounds the whole SMTP exchange by the context deadline, or
// by timeout when the context has none.
func sessionDeadline(ctx context.Context, now time.Time, timeout time.Duration) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return now.Add(timeout)
}

// Bytes renders the message as a plain text RFC 5322 message.
func (m Message) Bytes() []byte {
	var sb strings.Builder
	header := func(k, v string) {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(sanitizeHeader(v))
		sb.WriteString("\r\n")
	}

	header("From", m.From)
	header("To", strings.Join(m.To, ","))
	if m.ReplyTo != "" {
		header("Reply-To", m.ReplyTo)
	}
	header("Subject", m.Subject)
	header("Date", time.Now().UTC().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(sb.String())
}

// sanitizeHeader keeps user input from starting new header lines.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
