package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("purchase_request_not_found")
	ErrLineNotFound  = errors.New("purchase_request_product_not_found")
	ErrDuplicatePRNo = errors.New("duplicate_pr_no")
	ErrNotEditable   = errors.New("purchase_request_not_editable")
	ErrTransition    = errors.New("invalid_purchase_request_transition")
	ErrNoLines       = errors.New("purchase_request_has_no_products")
)

var (
	ErrInvalidPRNo       = errors.New("invalid_pr_no")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidDepartment = errors.New("invalid_department_id")
	ErrInvalidItem       = errors.New("invalid_ppmp_item_id")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
)

var validationErrors = []error{
	ErrInvalidPRNo,
	ErrInvalidStatus,
	ErrInvalidDepartment,
	ErrInvalidItem,
	ErrInvalidQuantity,
}

func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type LineRequest struct {
	ItemID   snowflake.ID    `json:"ppmp_item_id"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

type CreateRequest struct {
	PRNo         string        `json:"pr_no"`
	Purpose      *string       `json:"purpose"`
	Remarks      *string       `json:"remarks"`
	DepartmentID *snowflake.ID `json:"department_id"`
	Products     []LineRequest `json:"products"`
}

type UpdateRequest struct {
	Status  *string `json:"status"`
	Purpose *string `json:"purpose"`
	Remarks *string `json:"remarks"`
}

type ListRequest struct {
	pagination.Pagination
	Status       string
	DepartmentID *snowflake.ID
	Aligned      *bool
}

type ListResponse struct {
	pagination.PageInfo
	PurchaseRequests []Detail `json:"purchase_requests"`
}

type Filter struct {
	Status       string
	DepartmentID *snowflake.ID
	Aligned      *bool
	// Visible limits rows to the department or the creator when set.
	Visible *Visibility
	Limit   int
	Offset  int
}

type Visibility struct {
	DepartmentID *snowflake.ID
	CreatedByID  snowflake.ID
}

// Repository finders return nil, nil when no row matches.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pr *PurchaseRequest) error
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PurchaseRequest, error)
	FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Detail, error)
	PRNoExists(ctx context.Context, db *gorm.DB, prNo string) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]Detail, error)
	Count(ctx context.Context, db *gorm.DB, filter Filter) (int64, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindItemRef(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*ItemRef, error)
	InsertLine(ctx context.Context, db *gorm.DB, line *Line) error
	FindLine(ctx context.Context, db *gorm.DB, requestID, lineID snowflake.ID) (*Line, error)
	DeleteLine(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error
	ListLines(ctx context.Context, db *gorm.DB, requestID snowflake.ID) ([]LineView, error)
}

type Service interface {
	Create(ctx context.Context, actor authorization.Actor, req CreateRequest) (*Detail, error)
	List(ctx context.Context, actor authorization.Actor, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*Detail, error)
	Update(ctx context.Context, actor authorization.Actor, id snowflake.ID, req UpdateRequest) (*Detail, error)
	Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error

	ListProducts(ctx context.Context, actor authorization.Actor, id snowflake.ID) ([]LineView, error)
	AddProduct(ctx context.Context, actor authorization.Actor, id snowflake.ID, req LineRequest) (*LineView, error)
	RemoveProduct(ctx context.Context, actor authorization.Actor, id, lineID snowflake.ID) error
}
