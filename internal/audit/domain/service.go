package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry describes one audited mutation. PlanID groups child entity changes
// under their plan.
type Entry struct {
	Action     Action
	EntityType string
	EntityID   snowflake.ID
	PlanID     *snowflake.ID
	UserID     snowflake.ID
	OldValues  map[string]any
	NewValues  map[string]any
}

type ListFilter struct {
	PlanID     *snowflake.ID
	EntityType string
	EntityID   *snowflake.ID
	Limit      int
	Offset     int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	ListForPlan(ctx context.Context, planID snowflake.ID, page pagination.Pagination) (ListAuditLogResponse, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidEntity = errors.New("invalid_entity")
	ErrInvalidUser   = errors.New("invalid_user")
)
