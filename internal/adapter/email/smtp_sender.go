package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. OTP delivery is best-effort: callers
// fire it in the background and only log failures.
type Sender interface {
	SendVerificationCode(ctx context.Context, toEmail, toName, code string) error
}

type smtpSender struct {
	cfg    config.SMTPConfig
	otpTTL time.Duration
	log    logger.Logger
	d      *gomail.Dialer
}

func NewSMTPSender(cfg config.SMTPConfig, otpTTL time.Duration, log logger.Logger) (Sender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		dialer.SSL = true
		dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	return &smtpSender{cfg: cfg, otpTTL: otpTTL, log: log, d: dialer}, nil
}

// verificationBody renders the HTML and plain-text variants of the OTP mail.
// The expiry line follows the configured TTL so the mail never promises a
// window the server will not honor.
func verificationBody(toName, code string, ttl time.Duration) (html, plain string) {
	minutes := int(ttl.Minutes())
	html = fmt.Sprintf(`<p>Hello %s,</p>
<p>Your verification code is: <b>%s</b></p>
<p>This code will expire in %d minutes.</p>
<p>If you did not request this, please ignore this email.</p>`, toName, code, minutes)
	plain = fmt.Sprintf(
		"Hello %s,\nYour verification code is: %s\nThis code will expire in %d minutes.",
		toName, code, minutes)
	return html, plain
}

func (s *smtpSender) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	m := gomail.NewMessage()
	if s.cfg.SenderName != "" {
		m.SetHeader("From", m.FormatAddress(s.cfg.SenderEmail, s.cfg.SenderName))
	} else {
		m.SetHeader("From", s.cfg.SenderEmail)
	}
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your verification code")

	htmlBody, plainBody := verificationBody(toName, code, s.otpTTL)
	m.SetBody("text/html", htmlBody)
	m.AddAlternative("text/plain", plainBody)

	done := make(chan error, 1)
	go func() {
		done <- s.d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.log.Infof("verification email sent to %s", toEmail)
	return nil
}
