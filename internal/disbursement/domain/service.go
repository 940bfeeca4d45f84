package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"gorm.io/gorm"
)

var (
	ErrVoucherNotFound    = errors.New("disbursement_not_found")
	ErrLinkNotFound       = errors.New("disbursement_link_not_found")
	ErrDuplicateLink      = errors.New("disbursement_already_linked")
	ErrInvalidVoucherID   = errors.New("invalid_disbursement_id")
	ErrInvalidItemID      = errors.New("invalid_ppmp_item_id")
	ErrInvalidSearchLimit = errors.New("invalid_limit")
)

type LinkRequest struct {
	DisbursementID string       `json:"disbursement_id"`
	ItemID         snowflake.ID `json:"ppmp_item_id"`
}

type SearchRequest struct {
	Query string
	Limit int
}

type Repository interface {
	SearchVouchers(ctx context.Context, db *gorm.DB, query string, limit int) ([]Voucher, error)
	FindVoucher(ctx context.Context, db *gorm.DB, id string) (*Voucher, error)
	InsertLink(ctx context.Context, db *gorm.DB, link *Link) error
	FindLink(ctx context.Context, db *gorm.DB, planID, linkID snowflake.ID) (*Link, error)
	LinkExists(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID, voucherID string) (bool, error)
	DeleteLink(ctx context.Context, db *gorm.DB, linkID snowflake.ID) error
	ListLinks(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]LinkView, error)
}

type Service interface {
	Search(ctx context.Context, actor authorization.Actor, req SearchRequest) ([]Voucher, error)
	ListLinks(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]LinkView, error)
	Link(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req LinkRequest) (*LinkView, error)
	Unlink(ctx context.Context, actor authorization.Actor, planID, linkID snowflake.ID) error
}
