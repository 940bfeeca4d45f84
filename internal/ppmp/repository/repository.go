package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const summaryColumns = `p.*,
	COALESCE(d.name, '') AS department_name,
	COALESCE(u.name, '') AS prepared_by_name,
	(SELECT COUNT(*) FROM ppmp_items i WHERE i.ppmp_id = p.id) AS item_count`

type repo struct{}

func NewRepository() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPlan(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ppmps (
			id, title, description, fiscal_year, status, total_estimated_budget, total_allocated_budget,
			department_id, prepared_by_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Title,
		plan.Description,
		plan.FiscalYear,
		plan.Status,
		plan.TotalEstimatedBudget,
		plan.TotalAllocatedBudget,
		plan.DepartmentID,
		plan.PreparedByID,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) FindPlanByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

// LockPlan reads the plan row with a FOR UPDATE lock held until the
// surrounding transaction ends.
func (r *repo) LockPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FindPlanSummary(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PlanSummary, error) {
	var rows []domain.PlanSummary
	err := summaryQuery(ctx, db).Where("p.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) ListPlans(ctx context.Context, db *gorm.DB, filter domain.PlanFilter) ([]domain.PlanSummary, error) {
	var rows []domain.PlanSummary
	stmt := applyPlanFilter(summaryQuery(ctx, db), filter).Order("p.updated_at desc, p.id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountPlans(ctx context.Context, db *gorm.DB, filter domain.PlanFilter) (int64, error) {
	var total int64
	stmt := db.WithContext(ctx).
		Table("ppmps AS p").
		Joins("LEFT JOIN departments d ON d.id = p.department_id").
		Joins("LEFT JOIN users u ON u.id = p.prepared_by_id")
	err := applyPlanFilter(stmt, filter).Count(&total).Error
	return total, err
}

func (r *repo) UpdatePlanFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Plan{}).Where("id = ?", id).Updates(fields).Error
}

// DeletePlanCascade removes the plan and every row that hangs off it.
func (r *repo) DeletePlanCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	statements := []string{
		`DELETE FROM ppmp_disbursements WHERE ppmp_id = ?`,
		`DELETE FROM procurement_activities WHERE ppmp_id = ?`,
		`DELETE FROM budget_allocations WHERE ppmp_id = ?`,
		`DELETE FROM ppmp_items WHERE ppmp_id = ?`,
		`DELETE FROM ppmps WHERE id = ?`,
	}
	for _, stmt := range statements {
		if err := db.WithContext(ctx).Exec(stmt, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) UserName(ctx context.Context, db *gorm.DB, id snowflake.ID) (string, error) {
	var names []string
	err := db.WithContext(ctx).Raw(`SELECT name FROM users WHERE id = ? LIMIT 1`, id).Scan(&names).Error
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.LineItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID) (*domain.LineItem, error) {
	var item domain.LineItem
	err := db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, itemID).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).Where("ppmp_id = ?", planID).Order("item_no asc").Find(&items).Error
	return items, err
}

func (r *repo) SaveItem(ctx context.Context, db *gorm.DB, item *domain.LineItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM ppmp_disbursements WHERE ppmp_id = ? AND ppmp_item_id = ?`, planID, itemID,
	).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(
		`UPDATE procurement_activities SET ppmp_item_id = NULL WHERE ppmp_id = ? AND ppmp_item_id = ?`, planID, itemID,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, itemID).Delete(&domain.LineItem{}).Error
}

func (r *repo) CountItems(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.LineItem{}).Where("ppmp_id = ?", planID).Count(&total).Error
	return total, err
}

func (r *repo) ListItemCosts(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]decimal.Decimal, error) {
	var costs []decimal.Decimal
	err := db.WithContext(ctx).Model(&domain.LineItem{}).Where("ppmp_id = ?", planID).Pluck("total_cost", &costs).Error
	return costs, err
}

func (r *repo) ItemNoExists(ctx context.Context, db *gorm.DB, planID snowflake.ID, itemNo string, excludeID snowflake.ID) (bool, error) {
	var total int64
	stmt := db.WithContext(ctx).Model(&domain.LineItem{}).Where("ppmp_id = ? AND item_no = ?", planID, itemNo)
	if excludeID != 0 {
		stmt = stmt.Where("id <> ?", excludeID)
	}
	if err := stmt.Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *repo) InsertAllocation(ctx context.Context, db *gorm.DB, allocation *domain.BudgetAllocation) error {
	return db.WithContext(ctx).Create(allocation).Error
}

func (r *repo) FindAllocation(ctx context.Context, db *gorm.DB, planID, allocationID snowflake.ID) (*domain.BudgetAllocation, error) {
	var allocation domain.BudgetAllocation
	err := db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, allocationID).Limit(1).Find(&allocation).Error
	if err != nil {
		return nil, err
	}
	if allocation.ID == 0 {
		return nil, nil
	}
	return &allocation, nil
}

func (r *repo) ListAllocations(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.BudgetAllocation, error) {
	var allocations []domain.BudgetAllocation
	err := db.WithContext(ctx).Where("ppmp_id = ?", planID).Order("budget_code asc").Find(&allocations).Error
	return allocations, err
}

func (r *repo) SaveAllocation(ctx context.Context, db *gorm.DB, allocation *domain.BudgetAllocation) error {
	return db.WithContext(ctx).Save(allocation).Error
}

func (r *repo) DeleteAllocation(ctx context.Context, db *gorm.DB, planID, allocationID snowflake.ID) error {
	return db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, allocationID).Delete(&domain.BudgetAllocation{}).Error
}

func (r *repo) CountAllocations(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.BudgetAllocation{}).Where("ppmp_id = ?", planID).Count(&total).Error
	return total, err
}

func (r *repo) ListAllocatedAmounts(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := db.WithContext(ctx).Model(&domain.BudgetAllocation{}).Where("ppmp_id = ?", planID).Pluck("allocated_amount", &amounts).Error
	return amounts, err
}

func (r *repo) InsertActivity(ctx context.Context, db *gorm.DB, activity *domain.ProcurementActivity) error {
	return db.WithContext(ctx).Create(activity).Error
}

func (r *repo) FindActivity(ctx context.Context, db *gorm.DB, planID, activityID snowflake.ID) (*domain.ProcurementActivity, error) {
	var activity domain.ProcurementActivity
	err := db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, activityID).Limit(1).Find(&activity).Error
	if err != nil {
		return nil, err
	}
	if activity.ID == 0 {
		return nil, nil
	}
	return &activity, nil
}

func (r *repo) ListActivities(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.ProcurementActivity, error) {
	var activities []domain.ProcurementActivity
	err := db.WithContext(ctx).Where("ppmp_id = ?", planID).Order("start_date asc, id asc").Find(&activities).Error
	return activities, err
}

func (r *repo) SaveActivity(ctx context.Context, db *gorm.DB, activity *domain.ProcurementActivity) error {
	return db.WithContext(ctx).Save(activity).Error
}

func (r *repo) DeleteActivity(ctx context.Context, db *gorm.DB, planID, activityID snowflake.ID) error {
	return db.WithContext(ctx).Where("ppmp_id = ? AND id = ?", planID, activityID).Delete(&domain.ProcurementActivity{}).Error
}

func summaryQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("ppmps AS p").
		Select(summaryColumns).
		Joins("LEFT JOIN departments d ON d.id = p.department_id").
		Joins("LEFT JOIN users u ON u.id = p.prepared_by_id")
}

func applyPlanFilter(stmt *gorm.DB, filter domain.PlanFilter) *gorm.DB {
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("p.status = ?", status)
	}
	if filter.FiscalYear != nil {
		stmt = stmt.Where("p.fiscal_year = ?", *filter.FiscalYear)
	}
	if filter.DepartmentID != nil {
		stmt = stmt.Where("p.department_id = ?", *filter.DepartmentID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("(LOWER(p.title) LIKE ? OR LOWER(d.name) LIKE ? OR LOWER(u.name) LIKE ?)", like, like, like)
	}
	return stmt
}
