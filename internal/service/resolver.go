package service

import (
	"context"
	"fmt"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/choncance/choncance-backend/pkg/auth"
	"github.com/google/uuid"
)

// Resolver maps a bearer credential to the account it was issued for.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

type resolver struct {
	tokens *auth.TokenService
	users  repository.UserRepository
}

func NewResolver(tokens *auth.TokenService, users repository.UserRepository) Resolver {
	return &resolver{tokens: tokens, users: users}
}

// Resolve does no caching: one token check and one store lookup per call.
func (r *resolver) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := r.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, apperr.Unauthorized(apperr.CodeInvalidToken, "Invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized(apperr.CodeTokenMissingUserID, "Token does not identify a user")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized(apperr.CodeTokenMissingUserID, "Token does not identify a user")
	}

	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("resolve user: %w", err))
	}
	if user == nil {
		return nil, apperr.Unauthorized(apperr.CodeUserNotFound, "User not found")
	}
	return user, nil
}
