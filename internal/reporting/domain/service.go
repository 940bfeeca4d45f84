package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/authorization"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
)

var (
	ErrInvalidFiscalYear = errors.New("invalid_year")
	ErrInvalidDepartment = errors.New("invalid_department")
)

// Filter narrows every report to plans of one fiscal year and/or department.
// Nil fields mean no constraint.
type Filter struct {
	FiscalYear   *int
	DepartmentID *snowflake.ID
}

type Summary struct {
	TotalPPMP       int64           `json:"total_ppmp"`
	ApprovedPPMP    int64           `json:"approved_ppmp"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	UtilizedBudget  decimal.Decimal `json:"utilized_budget"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
}

type StatusCount struct {
	Status     string  `json:"status"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DepartmentSummary struct {
	DepartmentID snowflake.ID    `json:"department_id"`
	Department   string          `json:"department"`
	Count        int64           `json:"count"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
}

type FiscalYearSummary struct {
	Year        int             `json:"year"`
	Count       int64           `json:"count"`
	TotalBudget decimal.Decimal `json:"total_budget"`
}

type MethodSummary struct {
	Method     string          `json:"method"`
	Count      int64           `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type TopItem struct {
	ID                snowflake.ID    `json:"id"`
	PlanID            snowflake.ID    `json:"ppmp_id"`
	ItemNo            string          `json:"item_no"`
	Description       string          `json:"description"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	ProcurementMethod string          `json:"procurement_method"`
}

type Report struct {
	Summary            Summary             `json:"summary"`
	ByStatus           []StatusCount       `json:"by_status"`
	ByDepartment       []DepartmentSummary `json:"by_department"`
	ByFiscalYear       []FiscalYearSummary `json:"by_fiscal_year"`
	ProcurementMethods []MethodSummary     `json:"procurement_methods"`
	TopItems           []TopItem           `json:"top_items"`
}

// Stats is the dashboard status tally.
type Stats struct {
	Total       int64 `json:"total"`
	Draft       int64 `json:"draft"`
	Submitted   int64 `json:"submitted"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
	Implemented int64 `json:"implemented"`
}

type PendingPlan struct {
	ppmpdomain.PlanSummary
	PreparedByEmail string `json:"prepared_by_email"`
	ActivityCount   int64  `json:"activity_count"`
	LinkCount       int64  `json:"disbursement_link_count"`
}

type Service interface {
	Report(ctx context.Context, actor authorization.Actor, filter Filter) (*Report, error)
	Stats(ctx context.Context, actor authorization.Actor) (Stats, error)
	Recent(ctx context.Context, actor authorization.Actor) ([]ppmpdomain.PlanSummary, error)
	PendingApprovals(ctx context.Context, actor authorization.Actor) ([]PendingPlan, error)
}
