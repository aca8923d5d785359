// Package mail delivers transactional mail over a plain SMTP relay.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"places/config"
	"places/internal/domain/service"
	"places/internal/errors"
)

type smtpMailer struct {
	addr    string
	sender  string
	codeTTL time.Duration
	logger  *slog.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a Mailer backed by the configured SMTP relay.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.Mail == nil || cfg.Mail.Host == "" {
		return nil, errors.New("mail relay must be configured")
	}

	codeTTL := 2 * time.Minute
	if cfg.Recovery != nil && cfg.Recovery.CodeTTL > 0 {
		codeTTL = cfg.Recovery.CodeTTL
	}

	return &smtpMailer{
		addr:    net.JoinHostPort(cfg.Mail.Host, strconv.Itoa(cfg.Mail.Port)),
		sender:  cfg.Mail.Sender,
		codeTTL: codeTTL,
		logger:  logger,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}, nil
}

func (m *smtpMailer) SendResetCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	msg := composeResetCode(m.sender, email, code, m.codeTTL)
	if err := m.send(m.addr, m.sender, []string{email}, msg); err != nil {
		return errors.Wrap(err, "failed to send reset code mail")
	}

	m.logger.InfoContext(ctx, "Sent reset code mail", slog.String("email", email))

	return nil
}

func composeResetCode(sender, email, code string, ttl time.Duration) []byte {
	body := fmt.Sprintf(
		"Hi there, %s. Please enter this code to reset your password: %s. "+
			"It is only working for %s, so you should hurry!",
		email, code, formatTTL(ttl),
	)

	return []byte(
		"From: " + sender + "\r\n" +
			"To: " + email + "\r\n" +
			"Subject: Reset password code\r\n" +
			"\r\n" +
			body + "\r\n",
	)
}

func formatTTL(ttl time.Duration) string {
	if ttl < time.Minute {
		return fmt.Sprintf("%d seconds", int(ttl.Seconds()))
	}
	if ttl == time.Minute {
		return "1 minute"
	}

	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
