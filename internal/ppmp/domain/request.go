package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
)

type CreatePlanRequest struct {
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	FiscalYear   int          `json:"fiscal_year"`
	DepartmentID snowflake.ID `json:"department_id"`
}

type UpdatePlanRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	FiscalYear  *int    `json:"fiscal_year"`
}

type ListPlanRequest struct {
	pagination.Pagination
	Status       string
	FiscalYear   *int
	DepartmentID *snowflake.ID
	Search       string
}

type ListPlanResponse struct {
	pagination.PageInfo
	Plans []PlanSummary `json:"plans"`
}

// PlanSummary is a list row joined with display names.
type PlanSummary struct {
	Plan
	DepartmentName string `json:"department_name"`
	PreparedByName string `json:"prepared_by_name"`
	ItemCount      int64  `json:"item_count"`
}

type PlanDetail struct {
	PlanSummary
	ApprovedByName string                `json:"approved_by_name,omitempty"`
	Items          []LineItem            `json:"items"`
	Allocations    []BudgetAllocation    `json:"budget_allocations"`
	Activities     []ProcurementActivity `json:"procurement_activities"`
}

type PlanFilter struct {
	Status       string
	FiscalYear   *int
	DepartmentID *snowflake.ID
	Search       string
	Limit        int
	Offset       int
}

type ApproveRequest struct {
	Remarks *string `json:"remarks"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type CreateItemRequest struct {
	ItemNo            string             `json:"item_no"`
	Category          string             `json:"category"`
	Description       string             `json:"description"`
	Quantity          *int               `json:"quantity"`
	Unit              string             `json:"unit"`
	UnitCost          *decimal.Decimal   `json:"unit_cost"`
	ProcurementMethod string             `json:"procurement_method"`
	Schedule          *ItemSchedule      `json:"schedule"`
	MonthlyAllocation *MonthlyAllocation `json:"monthly_allocation"`
	Remarks           *string            `json:"remarks"`
	ProductID         *snowflake.ID      `json:"product_id"`
}

type UpdateItemRequest struct {
	ItemNo            *string            `json:"item_no"`
	Category          *string            `json:"category"`
	Description       *string            `json:"description"`
	Quantity          *int               `json:"quantity"`
	Unit              *string            `json:"unit"`
	UnitCost          *decimal.Decimal   `json:"unit_cost"`
	ProcurementMethod *string            `json:"procurement_method"`
	Schedule          *ItemSchedule      `json:"schedule"`
	MonthlyAllocation *MonthlyAllocation `json:"monthly_allocation"`
	Remarks           *string            `json:"remarks"`
}

type CreateAllocationRequest struct {
	BudgetCode      string           `json:"budget_code"`
	Description     string           `json:"description"`
	AllocatedAmount *decimal.Decimal `json:"allocated_amount"`
	ExpendedAmount  *decimal.Decimal `json:"expended_amount"`
}

type UpdateAllocationRequest struct {
	BudgetCode      *string          `json:"budget_code"`
	Description     *string          `json:"description"`
	AllocatedAmount *decimal.Decimal `json:"allocated_amount"`
	ExpendedAmount  *decimal.Decimal `json:"expended_amount"`
}

type CreateActivityRequest struct {
	Activity        string        `json:"activity"`
	StartDate       *time.Time    `json:"start_date"`
	EndDate         *time.Time    `json:"end_date"`
	ResponsibleUnit string        `json:"responsible_unit"`
	Status          string        `json:"status"`
	ItemID          *snowflake.ID `json:"ppmp_item_id"`
	Remarks         *string       `json:"remarks"`
}

type UpdateActivityRequest struct {
	Activity        *string       `json:"activity"`
	StartDate       *time.Time    `json:"start_date"`
	EndDate         *time.Time    `json:"end_date"`
	ResponsibleUnit *string       `json:"responsible_unit"`
	Status          *string       `json:"status"`
	ItemID          *snowflake.ID `json:"ppmp_item_id"`
	Remarks         *string       `json:"remarks"`
}
