package email

import (
	"testing"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationBodyUsesConfiguredTTL(t *testing.T) {
	html, plain := verificationBody("Ayesha", "4321", 5*time.Minute)

	assert.Contains(t, html, "4321")
	assert.Contains(t, html, "expire in 5 minutes")
	assert.Contains(t, plain, "4321")
	assert.Contains(t, plain, "expire in 5 minutes")
	assert.NotContains(t, html, "10 minutes")
}

func TestNewSMTPSenderRequiresHost(t *testing.T) {
	_, err := NewSMTPSender(config.SMTPConfig{}, 10*time.Minute, logger.NewNop())
	require.Error(t, err)
}
