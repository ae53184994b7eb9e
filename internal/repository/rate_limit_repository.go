package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/choncance/choncance-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type rateLimitRepository struct {
	client redis.Cmdable
}

func NewRateLimitRepository(client redis.Cmdable) RateLimitRepository {
	return &rateLimitRepository{client: client}
}

// CheckRateLimit counts hits in a fixed window. It fails open: a Redis
// outage never locks users out.
func (r *rateLimitRepository) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	// Hash the key for privacy
	hashedKey := fmt.Sprintf("rate_limit:%x", sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// EXPIRE NX only arms a key that has no TTL, so the window never slides
	// and a counter left without one is repaired on the next hit.
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, hashedKey)
		pipe.ExpireNX(ctx, hashedKey, window)
		return nil
	})
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err)
		return true, nil
	}
	return incr.Val() <= int64(requests), nil
}
