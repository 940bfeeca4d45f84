package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(raw string) (Status, error) {
	switch status := Status(strings.ToUpper(strings.TrimSpace(raw))); status {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusCancelled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// PurchaseRequest asks to buy goods or services already programmed in a
// department's plan. PPMPAligned is derived from its lines and refreshed on
// every write.
type PurchaseRequest struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	PRNo         string       `gorm:"column:pr_no;type:text;not null;uniqueIndex:ux_purchase_requests_pr_no" json:"pr_no"`
	Purpose      *string      `gorm:"type:text" json:"purpose,omitempty"`
	Remarks      *string      `gorm:"type:text" json:"remarks,omitempty"`
	Status       Status       `gorm:"type:text;not null;index" json:"status"`
	PPMPAligned  bool         `gorm:"column:ppmp_aligned;not null;default:false;index" json:"ppmp_aligned"`
	DepartmentID snowflake.ID `gorm:"not null;index" json:"department_id"`
	CreatedByID  snowflake.ID `gorm:"not null;index" json:"created_by_id"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (PurchaseRequest) TableName() string { return "purchase_requests" }

// Line is one requested quantity of a plan line item.
type Line struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	RequestID snowflake.ID    `gorm:"column:purchase_request_id;not null;index" json:"purchase_request_id"`
	PlanID    snowflake.ID    `gorm:"column:ppmp_id;not null;index" json:"ppmp_id"`
	ItemID    snowflake.ID    `gorm:"column:ppmp_item_id;not null;index" json:"ppmp_item_id"`
	Unit      string          `gorm:"type:text;not null" json:"unit"`
	Quantity  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Line) TableName() string { return "purchase_request_products" }

// LineView is a line joined with the plan item it draws from.
type LineView struct {
	Line
	ItemNo           string           `json:"item_no"`
	ItemDescription  string           `json:"item_description"`
	PlannedQuantity  int              `json:"planned_quantity"`
	PlanTitle        string           `json:"plan_title"`
	PlanFiscalYear   int              `json:"plan_fiscal_year"`
	PlanStatus       lifecycle.Status `json:"plan_status"`
	PlanDepartmentID snowflake.ID     `json:"plan_department_id"`
	Aligned          bool             `gorm:"-" json:"aligned"`
}

// ItemRef is the plan context of a line item a request may draw from.
type ItemRef struct {
	ItemID       snowflake.ID
	PlanID       snowflake.ID
	Unit         string
	Quantity     int
	PlanStatus   lifecycle.Status
	DepartmentID snowflake.ID
}

type Detail struct {
	PurchaseRequest
	DepartmentName string     `json:"department_name"`
	CreatedByName  string     `json:"created_by_name"`
	Products       []LineView `gorm:"-" json:"products"`
}

// Align marks each line and reports whether the whole request is aligned.
// A line is aligned when its plan is approved, belongs to the requesting
// department, and the request does not ask for more of the item than the
// plan programmed. A request without lines is never aligned.
func Align(departmentID snowflake.ID, lines []LineView) bool {
	requested := make(map[snowflake.ID]decimal.Decimal, len(lines))
	for _, line := range lines {
		requested[line.ItemID] = requested[line.ItemID].Add(line.Quantity)
	}

	aligned := len(lines) > 0
	for i := range lines {
		line := &lines[i]
		line.Aligned = line.PlanStatus == lifecycle.StatusApproved &&
			line.PlanDepartmentID == departmentID &&
			requested[line.ItemID].LessThanOrEqual(decimal.NewFromInt(int64(line.PlannedQuantity)))
		aligned = aligned && line.Aligned
	}
	return aligned
}
