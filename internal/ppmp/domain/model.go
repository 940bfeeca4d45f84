package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"gorm.io/datatypes"
)

type Category string

const (
	CategoryGoods              Category = "GOODS"
	CategoryInfrastructure     Category = "INFRASTRUCTURE"
	CategoryConsultingServices Category = "CONSULTING_SERVICES"
	CategoryGeneralServices    Category = "GENERAL_SERVICES"
	CategoryOthers             Category = "OTHERS"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGoods, CategoryInfrastructure, CategoryConsultingServices, CategoryGeneralServices, CategoryOthers:
		return true
	}
	return false
}

type ProcurementMethod string

const (
	MethodCompetitiveBidding    ProcurementMethod = "COMPETITIVE_BIDDING"
	MethodShopping              ProcurementMethod = "SHOPPING"
	MethodNegotiatedProcurement ProcurementMethod = "NEGOTIATED_PROCUREMENT"
	MethodDirectContracting     ProcurementMethod = "DIRECT_CONTRACTING"
	MethodRepeatOrder           ProcurementMethod = "REPEAT_ORDER"
)

func (m ProcurementMethod) Valid() bool {
	switch m {
	case MethodCompetitiveBidding, MethodShopping, MethodNegotiatedProcurement, MethodDirectContracting, MethodRepeatOrder:
		return true
	}
	return false
}

type ActivityStatus string

const (
	ActivityPlanned    ActivityStatus = "PLANNED"
	ActivityInProgress ActivityStatus = "IN_PROGRESS"
	ActivityCompleted  ActivityStatus = "COMPLETED"
	ActivityDelayed    ActivityStatus = "DELAYED"
	ActivityCancelled  ActivityStatus = "CANCELLED"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPlanned, ActivityInProgress, ActivityCompleted, ActivityDelayed, ActivityCancelled:
		return true
	}
	return false
}

// Plan is a department's procurement plan for one fiscal year. The two
// totals are maintained by the aggregate engine and never written directly.
type Plan struct {
	ID                   snowflake.ID     `gorm:"primaryKey" json:"id"`
	Title                string           `gorm:"type:text;not null" json:"title"`
	Description          *string          `gorm:"type:text" json:"description,omitempty"`
	FiscalYear           int              `gorm:"not null;index" json:"fiscal_year"`
	Status               lifecycle.Status `gorm:"type:text;not null;index" json:"status"`
	TotalEstimatedBudget decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"total_estimated_budget"`
	TotalAllocatedBudget decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"total_allocated_budget"`
	DepartmentID         snowflake.ID     `gorm:"not null;index" json:"department_id"`
	PreparedByID         snowflake.ID     `gorm:"not null;index" json:"prepared_by_id"`
	ApprovedByID         *snowflake.ID    `json:"approved_by_id,omitempty"`
	ApprovedAt           *time.Time       `json:"approved_at,omitempty"`
	SubmittedAt          *time.Time       `json:"submitted_at,omitempty"`
	Remarks              *string          `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt            time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"not null;index" json:"updated_at"`
}

func (Plan) TableName() string { return "ppmps" }

// ItemSchedule holds the optional dates of a line item, stored as JSON.
type ItemSchedule struct {
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	ProcurementStart *time.Time `json:"procurement_start,omitempty"`
	ProcurementEnd   *time.Time `json:"procurement_end,omitempty"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
}

// MonthlyAllocation is the optional per-month spending breakdown of an item.
type MonthlyAllocation struct {
	Jan decimal.NullDecimal `gorm:"column:jan;type:numeric(18,2)" json:"jan"`
	Feb decimal.NullDecimal `gorm:"column:feb;type:numeric(18,2)" json:"feb"`
	Mar decimal.NullDecimal `gorm:"column:mar;type:numeric(18,2)" json:"mar"`
	Apr decimal.NullDecimal `gorm:"column:apr;type:numeric(18,2)" json:"apr"`
	May decimal.NullDecimal `gorm:"column:may;type:numeric(18,2)" json:"may"`
	Jun decimal.NullDecimal `gorm:"column:jun;type:numeric(18,2)" json:"jun"`
	Jul decimal.NullDecimal `gorm:"column:jul;type:numeric(18,2)" json:"jul"`
	Aug decimal.NullDecimal `gorm:"column:aug;type:numeric(18,2)" json:"aug"`
	Sep decimal.NullDecimal `gorm:"column:sep;type:numeric(18,2)" json:"sep"`
	Oct decimal.NullDecimal `gorm:"column:oct;type:numeric(18,2)" json:"oct"`
	Nov decimal.NullDecimal `gorm:"column:nov;type:numeric(18,2)" json:"nov"`
	Dec decimal.NullDecimal `gorm:"column:dec;type:numeric(18,2)" json:"dec"`
}

// Months returns the twelve allocations in calendar order.
func (m MonthlyAllocation) Months() []decimal.NullDecimal {
	return []decimal.NullDecimal{m.Jan, m.Feb, m.Mar, m.Apr, m.May, m.Jun, m.Jul, m.Aug, m.Sep, m.Oct, m.Nov, m.Dec}
}

type LineItem struct {
	ID                snowflake.ID                     `gorm:"primaryKey" json:"id"`
	PlanID            snowflake.ID                     `gorm:"column:ppmp_id;not null;uniqueIndex:ux_ppmp_items_item_no" json:"ppmp_id"`
	ItemNo            string                           `gorm:"type:text;not null;uniqueIndex:ux_ppmp_items_item_no" json:"item_no"`
	Category          Category                         `gorm:"type:text;not null" json:"category"`
	Description       string                           `gorm:"type:text;not null" json:"description"`
	Quantity          int                              `gorm:"not null" json:"quantity"`
	Unit              string                           `gorm:"type:text;not null" json:"unit"`
	UnitCost          decimal.Decimal                  `gorm:"type:numeric(18,2);not null" json:"unit_cost"`
	TotalCost         decimal.Decimal                  `gorm:"type:numeric(18,2);not null" json:"total_cost"`
	ProcurementMethod ProcurementMethod                `gorm:"type:text;not null" json:"procurement_method"`
	Schedule          datatypes.JSONType[ItemSchedule] `gorm:"not null;default:'{}'" json:"schedule"`
	MonthlyAllocation MonthlyAllocation                `gorm:"embedded" json:"monthly_allocation"`
	Remarks           *string                          `gorm:"type:text" json:"remarks,omitempty"`
	ProductID         *snowflake.ID                    `json:"product_id,omitempty"`
	CreatedAt         time.Time                        `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time                        `gorm:"not null" json:"updated_at"`
}

func (LineItem) TableName() string { return "ppmp_items" }

type BudgetAllocation struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	PlanID          snowflake.ID    `gorm:"column:ppmp_id;not null;index" json:"ppmp_id"`
	BudgetCode      string          `gorm:"type:text;not null" json:"budget_code"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	AllocatedAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"allocated_amount"`
	ExpendedAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"expended_amount"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (BudgetAllocation) TableName() string { return "budget_allocations" }

type ProcurementActivity struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	PlanID          snowflake.ID   `gorm:"column:ppmp_id;not null;index" json:"ppmp_id"`
	ItemID          *snowflake.ID  `gorm:"column:ppmp_item_id;index" json:"ppmp_item_id,omitempty"`
	Activity        string         `gorm:"type:text;not null" json:"activity"`
	StartDate       time.Time      `gorm:"not null" json:"start_date"`
	EndDate         time.Time      `gorm:"not null" json:"end_date"`
	ResponsibleUnit string         `gorm:"type:text;not null" json:"responsible_unit"`
	Status          ActivityStatus `gorm:"type:text;not null" json:"status"`
	Remarks         *string        `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (ProcurementActivity) TableName() string { return "procurement_activities" }
