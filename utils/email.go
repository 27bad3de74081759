package utils

import (
	"Mini_Drive/config"
	"crypto/tls"
	"errors"
	"net/smtp"

	"github.com/jordan-wright/email"
)

var ErrSMTPNotConfigured = errors.New("smtp config missing")

// SendMail sends an HTML mail through the configured SMTP server.
func SendMail(to, subject, html string) error {
	cfg := config.AppConfig
	if !cfg.SMTPConfigured() {
		return ErrSMTPNotConfigured
	}

	e := email.NewEmail()
	e.From = cfg.SMTPFrom
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(html)

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	tlsConfig := &tls.Config{ServerName: cfg.SMTPHost}

	if cfg.SMTPTLS {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	if cfg.SMTPStartTLS {
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}
