package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository methods take the handle to run on so callers can pass a transaction.
// Finders return nil, nil when no row matches.
type Repository interface {
	InsertPlan(ctx context.Context, db *gorm.DB, plan *Plan) error
	FindPlanByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	LockPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	FindPlanSummary(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PlanSummary, error)
	ListPlans(ctx context.Context, db *gorm.DB, filter PlanFilter) ([]PlanSummary, error)
	CountPlans(ctx context.Context, db *gorm.DB, filter PlanFilter) (int64, error)
	UpdatePlanFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeletePlanCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	UserName(ctx context.Context, db *gorm.DB, id snowflake.ID) (string, error)

	InsertItem(ctx context.Context, db *gorm.DB, item *LineItem) error
	FindItem(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID) (*LineItem, error)
	ListItems(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]LineItem, error)
	SaveItem(ctx context.Context, db *gorm.DB, item *LineItem) error
	DeleteItem(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID) error
	CountItems(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error)
	ListItemCosts(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]decimal.Decimal, error)
	ItemNoExists(ctx context.Context, db *gorm.DB, planID snowflake.ID, itemNo string, excludeID snowflake.ID) (bool, error)

	InsertAllocation(ctx context.Context, db *gorm.DB, allocation *BudgetAllocation) error
	FindAllocation(ctx context.Context, db *gorm.DB, planID, allocationID snowflake.ID) (*BudgetAllocation, error)
	ListAllocations(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]BudgetAllocation, error)
	SaveAllocation(ctx context.Context, db *gorm.DB, allocation *BudgetAllocation) error
	DeleteAllocation(ctx context.Context, db *gorm.DB, planID, allocationID snowflake.ID) error
	CountAllocations(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error)
	ListAllocatedAmounts(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]decimal.Decimal, error)

	InsertActivity(ctx context.Context, db *gorm.DB, activity *ProcurementActivity) error
	FindActivity(ctx context.Context, db *gorm.DB, planID, activityID snowflake.ID) (*ProcurementActivity, error)
	ListActivities(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]ProcurementActivity, error)
	SaveActivity(ctx context.Context, db *gorm.DB, activity *ProcurementActivity) error
	DeleteActivity(ctx context.Context, db *gorm.DB, planID, activityID snowflake.ID) error
}
