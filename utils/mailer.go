package utils

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer gửi email HTML qua SMTP (STARTTLS bắt buộc).
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

// NewMailer trả về nil khi chưa cấu hình SMTP_HOST/SMTP_FROM.
func NewMailer(host string, port int, user, pass, from string, skipTLSVerify bool) *Mailer {
	if host == "" || from == "" {
		return nil
	}
	if port == 0 {
		port = 587
	}

	d := mail.NewDialer(host, port, user, pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: skipTLSVerify, // chỉ dùng khi dev
	}
	return &Mailer{dialer: d, from: from}
}

func (m *Mailer) Send(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
