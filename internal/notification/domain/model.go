package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	TypePlanApproved = "ppmp_approved"
	TypePlanRejected = "ppmp_rejected"
)

type Notification struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Type       string        `gorm:"type:text;not null" json:"type"`
	Title      string        `gorm:"type:text;not null" json:"title"`
	Message    string        `gorm:"type:text;not null" json:"message"`
	EntityType string        `gorm:"type:text" json:"entity_type,omitempty"`
	EntityID   *snowflake.ID `json:"entity_id,omitempty"`
	IsRead     bool          `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time     `gorm:"not null;index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type Notice struct {
	UserID     snowflake.ID
	Type       string
	Title      string
	Message    string
	EntityType string
	EntityID   *snowflake.ID
}

type ListRequest struct {
	pagination.Pagination
	UnreadOnly bool
}

type ListResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, n *Notification) error
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool) (int64, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error)
}

type Service interface {
	Notify(ctx context.Context, notice Notice) error
	List(ctx context.Context, userID snowflake.ID, req ListRequest) (ListResponse, error)
	MarkRead(ctx context.Context, userID, id snowflake.ID) error
}

var (
	ErrNotFound      = errors.New("notification_not_found")
	ErrInvalidNotice = errors.New("invalid_notice")
)
