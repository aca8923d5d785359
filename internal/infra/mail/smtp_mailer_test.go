package mail

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"places/config"
)

func testMailer(t *testing.T, send func(addr, from string, to []string, msg []byte) error) *smtpMailer {
	t.Helper()

	cfg := &config.Config{
		Mail:     &config.MailConfig{Host: "relay.example.com", Port: 587, Sender: "noreply@example.com"},
		Recovery: &config.RecoveryConfig{CodeTTL: 2 * time.Minute},
	}
	mailer, err := NewSMTPMailer(cfg, slog.Default())
	require.NoError(t, err)

	impl := mailer.(*smtpMailer)
	impl.send = send

	return impl
}

func TestSMTPMailer_SendResetCode(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	mailer := testMailer(t, func(addr, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg

		return nil
	})

	err := mailer.SendResetCode(context.Background(), "user@example.com", "1234")
	require.NoError(t, err)

	assert.Equal(t, "relay.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Reset password code")
	assert.Contains(t, string(gotMsg), "1234")
	assert.Contains(t, string(gotMsg), "2 minutes")
}

func TestSMTPMailer_BodyTracksConfiguredCodeTTL(t *testing.T) {
	var gotMsg []byte
	cfg := &config.Config{
		Mail:     &config.MailConfig{Host: "relay.example.com", Port: 587, Sender: "noreply@example.com"},
		Recovery: &config.RecoveryConfig{CodeTTL: 5 * time.Minute},
	}
	mailer, err := NewSMTPMailer(cfg, slog.Default())
	require.NoError(t, err)

	impl := mailer.(*smtpMailer)
	impl.send = func(addr, from string, to []string, msg []byte) error {
		gotMsg = msg

		return nil
	}

	require.NoError(t, impl.SendResetCode(context.Background(), "user@example.com", "1234"))
	assert.Contains(t, string(gotMsg), "5 minutes")
	assert.NotContains(t, string(gotMsg), "2 minutes")
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	called := false
	mailer := testMailer(t, func(addr, from string, to []string, msg []byte) error {
		called = true

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.SendResetCode(ctx, "user@example.com", "1234")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestNewSMTPMailer_RequiresRelay(t *testing.T) {
	_, err := NewSMTPMailer(&config.Config{}, slog.Default())
	assert.Error(t, err)
}
