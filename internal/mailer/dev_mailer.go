package mailer

import (
	"context"
	"time"

	"github.com/choncance/choncance-backend/pkg/logger"
)

// DevMailer writes mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetURL string, expiresIn time.Duration) error {
	logger.InfoContext(ctx, "📧 [DEV MAIL] Password Reset Email",
		"to", toEmail,
		"name", toName,
		"subject", resetSubject,
		"reset_url", resetURL,
		"expires_in", expiresIn.String(),
	)
	return nil
}
