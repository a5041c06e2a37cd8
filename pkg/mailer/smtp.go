package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storefront-auth/pkg/utils"

	"go.uber.org/zap"
)

type smtpMailer struct {
	config utils.EmailConfig
	log    *zap.Logger
}

// NewSMTPMailer returns a Mailer backed by plain SMTP. When no SMTP host is
// configured (local development), emails are logged instead of sent.
func NewSMTPMailer(config utils.EmailConfig, log *zap.Logger) Mailer {
	return &smtpMailer{
		config: config,
		log:    log.With(zap.String("component", "mailer")),
	}
}

func (m *smtpMailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to the store! Your account has been created.\n", name)
	return m.send(ctx, to, "Welcome!", body)
}

func (m *smtpMailer) SendVerificationEmail(ctx context.Context, to, name, verifyURL, validFor string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease verify your email address by opening the link below:\n\n%s\n\nThe link is valid for %s.\n",
		name, verifyURL, validFor)
	return m.send(ctx, to, "Verify your email", body)
}

func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, to, name, resetURL, validFor string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nThe link is valid for %s. If you did not request this, you can ignore this email.\n",
		name, resetURL, validFor)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *smtpMailer) send(ctx context.Context, to, subject, body string) error {
	// Development fallback: no SMTP host configured
	if m.config.Host == "" {
		m.log.Info("Email (not sent, no SMTP host)",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.config.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		m.log.Error("Failed to send email",
			zap.Error(err),
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	return nil
}
