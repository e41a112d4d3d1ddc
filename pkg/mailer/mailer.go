package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Mailer sends plain-text notification emails over SMTP. All sends are
// best-effort: a failure is logged and reported to the caller but never
// blocks the request that triggered it.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailer reads SMTP settings from the environment. Returns nil when
// SMTP_HOST is unset, in which case callers skip sending.
func NewMailer() *Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &Mailer{
		host:     host,
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

// Send delivers one message synchronously and reports success.
func (m *Mailer) Send(to, subject, body string) bool {
	if m == nil {
		log.Printf("⚠️ SMTP not configured, skipping email to %s", to)
		return false
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("❌ Failed to send email to %s: %v", to, err)
		return false
	}
	log.Printf("📧 Email sent to %s: %s", to, subject)
	return true
}

// SendAsync fires the send off on its own goroutine.
func (m *Mailer) SendAsync(to, subject, body string) {
	go m.Send(to, subject, body)
}
