package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ppmp/internal/authorization"
	obscontext "github.com/smallbiznis/ppmp/internal/observability/context"
	"github.com/smallbiznis/ppmp/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextActorKey = "actor"

	rateLimitReasonUserRate = "user-rate"
)

// ActorRequired resolves the session token into the calling actor or aborts with 401.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), string(actor.Role), actor.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextActorKey, actor)
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (authorization.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return authorization.Actor{}, false
	}
	actor, ok := value.(authorization.Actor)
	return actor, ok && actor.UserID != 0
}

// requireActor is the handler-side guard for routes mounted under ActorRequired.
func requireActor(c *gin.Context) (authorization.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return authorization.Actor{}, false
	}
	return actor, true
}

// MutationRateLimit applies the per-user token bucket to write routes. It
// is a no-op when redis is not configured.
func (s *Server) MutationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		result, err := s.limiter.Allow(ctx, actor.UserID)
		if err != nil {
			logger.FromContext(ctx).Warn("mutation rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			s.denyRateLimit(ctx, c, actor, endpoint, int(result.RetryAfter.Seconds()+0.999))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		s.obsMetrics.RecordRateLimitAllowed(ctx, string(actor.Role), endpoint)
		c.Next()
	}
}

func (s *Server) denyRateLimit(ctx context.Context, c *gin.Context, actor authorization.Actor, endpoint string, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	logger.FromContext(ctx).Warn("mutation rate limit exceeded",
		zap.String("reason", rateLimitReasonUserRate),
		zap.String("endpoint", endpoint),
		zap.String("user_id", actor.UserID.String()),
	)
	s.obsMetrics.RecordRateLimitDenied(ctx, string(actor.Role), endpoint, rateLimitReasonUserRate)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonUserRate)
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	route := strings.TrimSpace(c.FullPath())
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}
