package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/mailer"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/choncance/choncance-backend/pkg/auth"
	"github.com/choncance/choncance-backend/pkg/config"
	"github.com/choncance/choncance-backend/pkg/events"
	"github.com/choncance/choncance-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	TokenTypeBearer = "bearer"

	MsgForgotPassword = "If an account exists for that email, a password reset link has been sent."
	MsgPasswordReset  = "Password has been reset successfully."

	mailSendTimeout = 15 * time.Second
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	resetStore repository.ResetTokenStore
	hasher     auth.Hasher
	tokens     *auth.TokenService
	mailer     mailer.Service
	eventBus   events.Publisher
	config     *config.Config
	dummyHash  string

	mailWG sync.WaitGroup
}

func NewAuthService(
	userRepo repository.UserRepository,
	resetStore repository.ResetTokenStore,
	hasher auth.Hasher,
	tokens *auth.TokenService,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	// Login verifies unknown emails against this so both failure paths cost one hash check.
	dummyHash, err := hasher.Hash("choncance-timing-dummy-1")
	if err != nil {
		logger.Warn("Failed to prepare dummy password hash", "error", err)
	}
	return &authService{
		userRepo:   userRepo,
		resetStore: resetStore,
		hasher:     hasher,
		tokens:     tokens,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
		dummyHash:  dummyHash,
	}
}

func invalidCredentials() *apperr.Error {
	return apperr.Unauthorized(apperr.CodeInvalidCredentials, "Invalid email or password")
}

func invalidResetToken() *apperr.Error {
	return apperr.BadRequest(apperr.CodeInvalidToken, "Invalid or expired reset token")
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check existing user: %w", err))
	}
	if existing != nil {
		return nil, emailTaken()
	}

	passwordHash, err := s.hashPassword(req.Password, "password")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if errors.Is(err, repository.ErrEmailTaken) {
		// Lost a race with a concurrent registration.
		return nil, emailTaken()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}

	resp, err := s.issueSession(user, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	})
	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return resp, nil
}

func emailTaken() *apperr.Error {
	return apperr.Conflict(apperr.CodeEmailExists, "Email is already registered")
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		s.hasher.Verify(req.Password, s.dummyHash)
		return nil, invalidCredentials()
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	ttl := s.config.Auth.AccessTokenTTL
	if req.RememberMe {
		ttl = s.config.Auth.RememberMeTTL
	}
	return s.issueSession(user, ttl)
}

func (s *authService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp := &domain.MessageResponse{Message: MsgForgotPassword}

	// Nothing below may change the response: callers must not learn whether the email exists.
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to look up user for password reset", "error", err)
		return resp, nil
	}
	if user == nil {
		return resp, nil
	}

	token, err := s.tokens.IssueResetToken(user.ID.String(), auth.PasswordStamp(user.PasswordHash))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue reset token", "error", err, "user_id", user.ID)
		return resp, nil
	}

	s.sendResetMail(ctx, user, s.buildResetURL(token))
	s.publish(ctx, events.PasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:      user.ID.String(),
		RequestedAt: time.Now().UTC(),
	})
	return resp, nil
}

// sendResetMail delivers in the background so the response time does not depend on the provider.
func (s *authService) sendResetMail(ctx context.Context, user *domain.User, link string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailSendTimeout)
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		defer cancel()
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, link, s.tokens.ResetTTL()); err != nil {
			logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
		}
	}()
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyResetToken(req.Token)
	if err != nil {
		return nil, invalidResetToken()
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, invalidResetToken()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperr.BadRequest(apperr.CodeUserNotFound, "User not found")
	}
	// A password change since issue makes the token stale.
	if claims.Stamp != auth.PasswordStamp(user.PasswordHash) {
		return nil, invalidResetToken()
	}

	newHash, err := s.hashPassword(req.NewPassword, "new_password")
	if err != nil {
		return nil, err
	}

	// Remember the jti for at least the token's whole lifetime.
	first, err := s.resetStore.Consume(ctx, claims.TokenID, s.tokens.ResetTTL()+time.Minute)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("consume reset token: %w", err))
	}
	if !first {
		return nil, invalidResetToken()
	}

	swapped, err := s.userRepo.UpdatePassword(ctx, user.ID, user.PasswordHash, newHash)
	if err != nil {
		// The password is unchanged, so the link must stay usable.
		if relErr := s.resetStore.Release(context.WithoutCancel(ctx), claims.TokenID); relErr != nil {
			logger.ErrorContext(ctx, "Failed to release reset token", "error", relErr, "user_id", user.ID)
		}
		return nil, apperr.Internal(fmt.Errorf("update password: %w", err))
	}
	if !swapped {
		return nil, invalidResetToken()
	}

	logger.InfoContext(ctx, "Password reset", "user_id", user.ID)
	return &domain.MessageResponse{Message: MsgPasswordReset}, nil
}

func (s *authService) hashPassword(plaintext, field string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperr.Validation(apperr.CodeValidation, field+": must be at most 72 bytes").
			WithDetail(field, "must be at most 72 bytes")
	}
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	return hash, nil
}

func (s *authService) issueSession(user *domain.User, ttl time.Duration) (*domain.AuthResponse, error) {
	token, err := s.tokens.IssueAccessToken(auth.AccessClaims{
		Subject: user.ID.String(),
		Email:   user.Email,
	}, ttl)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("issue access token: %w", err))
	}
	return &domain.AuthResponse{
		User:        user.ToUserInfo(),
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

func (s *authService) buildResetURL(token string) string {
	base := strings.TrimRight(s.config.Email.AppBaseURL, "/")
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *authService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.eventBus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
