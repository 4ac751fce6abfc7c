package email

import (
	"context"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
)

// logSender stands in when SMTP is not configured (local development). The
// code ends up in the service log instead of a mailbox.
type logSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) Sender {
	return &logSender{log: log}
}

func (s *logSender) SendVerificationCode(_ context.Context, toEmail, toName, code string) error {
	s.log.Infof("mail delivery disabled; verification code for %s (%s): %s", toEmail, toName, code)
	return nil
}
