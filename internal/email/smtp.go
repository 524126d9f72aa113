package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
)

type Config struct {
	Host    string
	Port    int
	From    string
	User    string
	Pass    string
	TLSMode string // "auto" | "starttls" | "ssl" | "none"
}

// SMTPSender sends plain-text mail over SMTP. The auth package only needs
// the Send method, so it depends on its own Mailer interface instead.
type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	default:
		// "auto"/"starttls": go-mail negotiates STARTTLS when offered.
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
