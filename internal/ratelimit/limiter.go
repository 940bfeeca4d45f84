package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ppmp/internal/config"
)

const keyMutationUser = "ppmp:mutations:user:%s"

// NewClient returns nil when rate limiting is disabled.
func NewClient(cfg config.Config) (redis.UniversalClient, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	}), nil
}

// MutationLimiter applies a token bucket per user to write requests.
type MutationLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewMutationLimiter(cfg config.Config, client redis.UniversalClient) (*MutationLimiter, error) {
	if client == nil {
		return nil, nil
	}
	if cfg.RateLimit.PerUserRate <= 0 || cfg.RateLimit.PerUserBurst <= 0 {
		return nil, errors.New("mutation rate limit must be positive")
	}
	return &MutationLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimit.PerUserRate,
		burst:  cfg.RateLimit.PerUserBurst,
	}, nil
}

func (l *MutationLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *MutationLimiter) Allow(ctx context.Context, userID snowflake.ID) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyMutationUser, userID.String()), l.rate, l.burst)
}
