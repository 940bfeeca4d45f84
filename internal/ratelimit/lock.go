package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ppmp/internal/config"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"go.uber.org/zap"
)

const (
	keyTransitionLock = "ppmp:transition:%s"

	lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
)

type Locker struct {
	client redis.UniversalClient
	script *redis.Script
}

func NewLocker(client redis.UniversalClient) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the key only while it still holds our token.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// TransitionGuard keeps two instances from racing the same plan through
// submit, approve or reject.
type TransitionGuard struct {
	locker *Locker
	ttl    time.Duration
	log    *zap.Logger
}

func transitionKey(planID snowflake.ID) string {
	return fmt.Sprintf(keyTransitionLock, planID.String())
}

// NewTransitionGuard returns a nil guard when redis is not configured, in
// which case the row lock taken by the transaction is the only serialization.
func NewTransitionGuard(cfg config.Config, client redis.UniversalClient, log *zap.Logger) ppmpdomain.TransitionGuard {
	if client == nil {
		return nil
	}
	ttl := time.Duration(cfg.RateLimit.TransitionTTL) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &TransitionGuard{
		locker: NewLocker(client),
		ttl:    ttl,
		log:    log.Named("ratelimit.transition"),
	}
}

func (g *TransitionGuard) Acquire(ctx context.Context, planID snowflake.ID) (func(), error) {
	key := transitionKey(planID)
	token, ok, err := g.locker.TryLock(ctx, key, g.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ppmpdomain.ErrTransitionInProgress
	}
	return func() {
		// The request context may already be cancelled by the time we release.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := g.locker.Release(releaseCtx, key, token); err != nil {
			g.log.Warn("failed to release transition lock", zap.String("ppmp_id", planID.String()), zap.Error(err))
		}
	}, nil
}
