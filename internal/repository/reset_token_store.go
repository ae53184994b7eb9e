package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore remembers which reset tokens have been redeemed.
type ResetTokenStore interface {
	// Consume marks jti used and reports whether this call was the first.
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	// Release undoes Consume when the password change did not commit.
	Release(ctx context.Context, jti string) error
}

type redisResetTokenStore struct {
	client redis.Cmdable
}

func NewResetTokenStore(client redis.Cmdable) ResetTokenStore {
	return &redisResetTokenStore{client: client}
}

func resetTokenKey(jti string) string {
	return "reset_token:used:" + jti
}

func (s *redisResetTokenStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ok, err := s.client.SetNX(ctx, resetTokenKey(jti), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume reset token: %w", err)
	}
	return ok, nil
}

func (s *redisResetTokenStore) Release(ctx context.Context, jti string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := s.client.Del(ctx, resetTokenKey(jti)).Err(); err != nil {
		return fmt.Errorf("release reset token: %w", err)
	}
	return nil
}
