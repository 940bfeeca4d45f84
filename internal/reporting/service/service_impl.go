package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/config"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/smallbiznis/ppmp/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const unknownDepartment = "Unknown"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Authz    authorization.Service
	PlanRepo ppmpdomain.Repository
	Config   *config.PPMPConfigHolder `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	authz    authorization.Service
	planRepo ppmpdomain.Repository
	cfg      *config.PPMPConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reporting.service"),
		authz:    p.Authz,
		planRepo: p.PlanRepo,
		cfg:      p.Config,
	}
}

func (s *Service) Report(ctx context.Context, actor authorization.Actor, filter domain.Filter) (*domain.Report, error) {
	if err := s.authz.Authorize(ctx, actor, nil, authorization.ActionViewReports); err != nil {
		return nil, err
	}
	filter = scopeFilter(actor, filter)
	started := time.Now()

	plans, err := s.listPlanRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.listItemRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	topItems, err := s.listTopItems(ctx, filter, s.cfg.Get().Reports.TopItemsLimit)
	if err != nil {
		return nil, err
	}
	utilized, err := s.loadUtilizedBudget(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Summary:            summarize(plans, utilized),
		ByStatus:           statusDistribution(plans),
		ByDepartment:       departmentSummary(plans),
		ByFiscalYear:       fiscalYearSummary(plans),
		ProcurementMethods: methodSummary(items),
		TopItems:           topItems,
	}
	s.log.Debug("ppmp report built",
		zap.Int("plans", len(plans)),
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (s *Service) Stats(ctx context.Context, actor authorization.Actor) (domain.Stats, error) {
	if err := s.authz.Authorize(ctx, actor, nil, authorization.ActionView); err != nil {
		return domain.Stats{}, err
	}
	where, args := filterClause(scopeFilter(actor, domain.Filter{}))

	var rows []statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT p.status, COUNT(*) AS count
		FROM ppmps p
		`+where+`
		GROUP BY p.status`,
		args...,
	).Scan(&rows).Error; err != nil {
		return domain.Stats{}, err
	}

	var stats domain.Stats
	for _, row := range rows {
		stats.Total += row.Count
		switch lifecycle.Status(row.Status) {
		case lifecycle.StatusDraft:
			stats.Draft = row.Count
		case lifecycle.StatusSubmitted:
			stats.Submitted = row.Count
		case lifecycle.StatusApproved:
			stats.Approved = row.Count
		case lifecycle.StatusRejected:
			stats.Rejected = row.Count
		case lifecycle.StatusImplemented:
			stats.Implemented = row.Count
		}
	}
	return stats, nil
}

func (s *Service) Recent(ctx context.Context, actor authorization.Actor) ([]ppmpdomain.PlanSummary, error) {
	if err := s.authz.Authorize(ctx, actor, nil, authorization.ActionView); err != nil {
		return nil, err
	}
	filter := scopeFilter(actor, domain.Filter{})
	plans, err := s.planRepo.ListPlans(ctx, s.db, ppmpdomain.PlanFilter{
		DepartmentID: filter.DepartmentID,
		Limit:        s.cfg.Get().Dashboard.RecentLimit,
	})
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []ppmpdomain.PlanSummary{}
	}
	return plans, nil
}

func (s *Service) PendingApprovals(ctx context.Context, actor authorization.Actor) ([]domain.PendingPlan, error) {
	if err := s.authz.Authorize(ctx, actor, nil, authorization.ActionViewPending); err != nil {
		return nil, err
	}

	rows := []domain.PendingPlan{}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT p.*,
			COALESCE(d.name, '') AS department_name,
			COALESCE(u.name, '') AS prepared_by_name,
			COALESCE(u.email, '') AS prepared_by_email,
			(SELECT COUNT(*) FROM ppmp_items i WHERE i.ppmp_id = p.id) AS item_count,
			(SELECT COUNT(*) FROM procurement_activities a WHERE a.ppmp_id = p.id) AS activity_count,
			(SELECT COUNT(*) FROM ppmp_disbursements l WHERE l.ppmp_id = p.id) AS link_count
		FROM ppmps p
		LEFT JOIN departments d ON d.id = p.department_id
		LEFT JOIN users u ON u.id = p.prepared_by_id
		WHERE p.status = ?
		ORDER BY p.updated_at ASC, p.id ASC`,
		string(lifecycle.StatusSubmitted),
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// scopeFilter pins preparers to their own department. A preparer without one
// matches no plans.
func scopeFilter(actor authorization.Actor, filter domain.Filter) domain.Filter {
	if actor.Role != authorization.RolePreparer {
		return filter
	}
	if actor.DepartmentID == nil {
		none := snowflake.ID(0)
		filter.DepartmentID = &none
		return filter
	}
	filter.DepartmentID = actor.DepartmentID
	return filter
}

func filterClause(filter domain.Filter) (string, []any) {
	var conditions []string
	var args []any
	if filter.FiscalYear != nil {
		conditions = append(conditions, "p.fiscal_year = ?")
		args = append(args, *filter.FiscalYear)
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, "p.department_id = ?")
		args = append(args, *filter.DepartmentID)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type planRow struct {
	ID                   snowflake.ID
	Status               string
	FiscalYear           int
	DepartmentID         snowflake.ID
	DepartmentName       *string
	TotalEstimatedBudget decimal.Decimal
}

func (s *Service) listPlanRows(ctx context.Context, filter domain.Filter) ([]planRow, error) {
	where, args := filterClause(filter)
	var rows []planRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT p.id, p.status, p.fiscal_year, p.department_id,
			d.name AS department_name,
			p.total_estimated_budget
		FROM ppmps p
		LEFT JOIN departments d ON d.id = p.department_id
		`+where,
		args...,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type itemRow struct {
	ProcurementMethod string
	TotalCost         decimal.Decimal
}

func (s *Service) listItemRows(ctx context.Context, filter domain.Filter) ([]itemRow, error) {
	where, args := filterClause(filter)
	var rows []itemRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT i.procurement_method, i.total_cost
		FROM ppmp_items i
		JOIN ppmps p ON p.id = i.ppmp_id
		`+where,
		args...,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) listTopItems(ctx context.Context, filter domain.Filter, limit int) ([]domain.TopItem, error) {
	where, args := filterClause(filter)
	args = append(args, limit)
	items := []domain.TopItem{}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT i.id, i.ppmp_id AS plan_id, i.item_no, i.description, i.total_cost, i.procurement_method
		FROM ppmp_items i
		JOIN ppmps p ON p.id = i.ppmp_id
		`+where+`
		ORDER BY i.total_cost DESC, i.id ASC
		LIMIT ?`,
		args...,
	).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type voucherAmountRow struct {
	PlanID         snowflake.ID
	DisbursementID string
	Amount         decimal.Decimal
}

// loadUtilizedBudget sums voucher amounts reachable through links. A voucher
// linked to several items of one plan counts once for that plan.
func (s *Service) loadUtilizedBudget(ctx context.Context, filter domain.Filter) (decimal.Decimal, error) {
	where, args := filterClause(filter)
	var rows []voucherAmountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT l.ppmp_id AS plan_id, l.disbursement_id, v.amount
		FROM ppmp_disbursements l
		JOIN ppmps p ON p.id = l.ppmp_id
		JOIN disbursements v ON v.id = l.disbursement_id
		`+where,
		args...,
	).Scan(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return total, nil
}

type statusCountRow struct {
	Status string
	Count  int64
}

func summarize(plans []planRow, utilized decimal.Decimal) domain.Summary {
	summary := domain.Summary{
		TotalPPMP:       int64(len(plans)),
		TotalBudget:     decimal.Zero,
		UtilizedBudget:  utilized,
		UtilizationRate: decimal.Zero,
	}
	for _, plan := range plans {
		if lifecycle.Status(plan.Status) == lifecycle.StatusApproved {
			summary.ApprovedPPMP++
		}
		summary.TotalBudget = summary.TotalBudget.Add(plan.TotalEstimatedBudget)
	}
	if summary.TotalBudget.IsPositive() {
		summary.UtilizationRate = utilized.Div(summary.TotalBudget).Round(4)
	}
	return summary
}

func statusDistribution(plans []planRow) []domain.StatusCount {
	counts := map[string]int64{}
	for _, plan := range plans {
		counts[plan.Status]++
	}
	out := make([]domain.StatusCount, 0, len(counts))
	for _, status := range lifecycle.Statuses {
		count, ok := counts[string(status)]
		if !ok {
			continue
		}
		out = append(out, domain.StatusCount{
			Status:     string(status),
			Count:      count,
			Percentage: percentage(count, int64(len(plans))),
		})
		delete(counts, string(status))
	}
	// Anything left is a status value written outside this service.
	for status, count := range counts {
		out = append(out, domain.StatusCount{
			Status:     status,
			Count:      count,
			Percentage: percentage(count, int64(len(plans))),
		})
	}
	return out
}

func departmentSummary(plans []planRow) []domain.DepartmentSummary {
	index := map[snowflake.ID]int{}
	out := []domain.DepartmentSummary{}
	for _, plan := range plans {
		i, ok := index[plan.DepartmentID]
		if !ok {
			name := unknownDepartment
			if plan.DepartmentName != nil && strings.TrimSpace(*plan.DepartmentName) != "" {
				name = *plan.DepartmentName
			}
			out = append(out, domain.DepartmentSummary{
				DepartmentID: plan.DepartmentID,
				Department:   name,
				TotalBudget:  decimal.Zero,
			})
			i = len(out) - 1
			index[plan.DepartmentID] = i
		}
		out[i].Count++
		out[i].TotalBudget = out[i].TotalBudget.Add(plan.TotalEstimatedBudget)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Department != out[b].Department {
			return out[a].Department < out[b].Department
		}
		return out[a].DepartmentID < out[b].DepartmentID
	})
	return out
}

func fiscalYearSummary(plans []planRow) []domain.FiscalYearSummary {
	index := map[int]int{}
	out := []domain.FiscalYearSummary{}
	for _, plan := range plans {
		i, ok := index[plan.FiscalYear]
		if !ok {
			out = append(out, domain.FiscalYearSummary{Year: plan.FiscalYear, TotalBudget: decimal.Zero})
			i = len(out) - 1
			index[plan.FiscalYear] = i
		}
		out[i].Count++
		out[i].TotalBudget = out[i].TotalBudget.Add(plan.TotalEstimatedBudget)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Year < out[b].Year })
	return out
}

func methodSummary(items []itemRow) []domain.MethodSummary {
	index := map[string]int{}
	out := []domain.MethodSummary{}
	for _, item := range items {
		i, ok := index[item.ProcurementMethod]
		if !ok {
			out = append(out, domain.MethodSummary{Method: item.ProcurementMethod, TotalValue: decimal.Zero})
			i = len(out) - 1
			index[item.ProcurementMethod] = i
		}
		out[i].Count++
		out[i].TotalValue = out[i].TotalValue.Add(item.TotalCost)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].TotalValue.Equal(out[b].TotalValue) {
			return out[a].TotalValue.GreaterThan(out[b].TotalValue)
		}
		return out[a].Method < out[b].Method
	})
	return out
}

func percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}
