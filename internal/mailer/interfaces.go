package mailer

import (
	"context"
	"time"

	"github.com/choncance/choncance-backend/pkg/config"
	"github.com/choncance/choncance-backend/pkg/logger"
)

// Service delivers the password reset link; expiresIn is the link lifetime shown to the user.
type Service interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetURL string, expiresIn time.Duration) error
}

// New picks a delivery backend from config: dev log output, MailerSend, then SMTP.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	case cfg.SMTPHost != "":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		logger.Warn("No mail backend configured, falling back to dev mailer")
		return NewDevMailer()
	}
}
