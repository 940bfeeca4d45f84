package domain

import (
	"context"

	"github.com/smallbiznis/ppmp/internal/authorization"
)

type Service interface {
	// Authenticate resolves a raw session token into the calling actor.
	Authenticate(ctx context.Context, rawToken string) (authorization.Actor, error)
}
