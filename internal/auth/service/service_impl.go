package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/smallbiznis/ppmp/internal/auth/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		log:   p.Log.Named("auth.service"),
		repo:  p.Repo,
		clock: c,
	}
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (authorization.Actor, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return authorization.Actor{}, domain.ErrInvalidSession
	}

	session, err := s.repo.GetSessionByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return authorization.Actor{}, domain.ErrInvalidSession
		}
		return authorization.Actor{}, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return authorization.Actor{}, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return authorization.Actor{}, domain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return authorization.Actor{}, domain.ErrInvalidSession
		}
		return authorization.Actor{}, err
	}

	if err := s.repo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		s.log.Warn("failed to touch session", zap.String("session_id", session.ID.String()), zap.Error(err))
	}

	role := authorization.ParseRole(user.Role)
	if role == authorization.RoleUnknown {
		s.log.Info("unrecognized role", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	}

	return authorization.Actor{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         role,
		DepartmentID: user.DepartmentID,
	}, nil
}

// HashToken is the digest stored in sessions.session_token_hash.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
