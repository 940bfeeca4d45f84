package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// TransitionGuard serializes lifecycle transitions of a plan across instances.
type TransitionGuard interface {
	Acquire(ctx context.Context, planID snowflake.ID) (release func(), err error)
}
