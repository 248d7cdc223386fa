// Package mail sends plain-text email over SMTP.
//
//	m := mail.New(mail.SMTP{Host: "smtp.example.com", Port: "587", From: "market@example.com"})
//	err := m.Send(ctx, mail.Message{
//	    To:      []string{"farmer@example.com"},
//	    Subject: "You made a sale",
//	    Body:    "10 units of Maize were ordered.",
//	})
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTP holds the relay settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Addr is host:port.
func (s SMTP) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

// Message is one email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// ErrNoRecipients is returned by Send for a message without recipients.
var ErrNoRecipients = errors.New("mail: no recipients")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers messages through one relay.
type Mailer struct {
	cfg  SMTP
	send sendFunc
}

// New returns a Mailer for cfg. Port 465 uses implicit TLS; anything else
// goes through smtp.SendMail, which upgrades with STARTTLS when offered.
func New(cfg SMTP) *Mailer {
	m := &Mailer{cfg: cfg, send: smtp.SendMail}
	if cfg.Port == "465" {
		m.send = m.sendTLS
	}
	return m
}

// Send delivers msg. ctx bounds only the time spent before dialing, since
// net/smtp has no context support.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(m.cfg.Addr(), auth, m.cfg.From, msg.To, m.build(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

func (m *Mailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Quit() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (m *Mailer) build(msg Message) []byte {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
