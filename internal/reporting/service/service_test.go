package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/config"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	ppmprepository "github.com/smallbiznis/ppmp/internal/ppmp/repository"
	refdomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	"github.com/smallbiznis/ppmp/internal/reporting/domain"
	"github.com/smallbiznis/ppmp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	deptEngineering snowflake.ID = 10
	deptHealth      snowflake.ID = 20
	deptMissing     snowflake.ID = 99
)

var base = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func newReportingService(t *testing.T, cfg config.PPMPConfig) (domain.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t,
		&ppmpdomain.Plan{},
		&ppmpdomain.LineItem{},
		&ppmpdomain.ProcurementActivity{},
		&disbursementdomain.Voucher{},
		&disbursementdomain.Link{},
		&refdomain.Department{},
		&authdomain.User{},
	)
	require.NoError(t, db.Create(&[]refdomain.Department{
		{ID: deptEngineering, Code: "ENG", Name: "Engineering", CreatedAt: base},
		{ID: deptHealth, Code: "MHO", Name: "Health", CreatedAt: base},
	}).Error)

	enforcer, err := authorization.NewStaticEnforcer()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	svc := NewService(Params{
		DB:       db,
		Log:      log,
		Authz:    authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		PlanRepo: ppmprepository.NewRepository(),
		Config:   config.NewStaticPPMPConfigHolder(cfg),
	})
	return svc, db
}

func seedPlan(t *testing.T, db *gorm.DB, id snowflake.ID, status lifecycle.Status, dept snowflake.ID, year int, budget string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Create(&ppmpdomain.Plan{
		ID:                   id,
		Title:                "Plan " + id.String(),
		FiscalYear:           year,
		Status:               status,
		TotalEstimatedBudget: decimal.RequireFromString(budget),
		DepartmentID:         dept,
		PreparedByID:         1,
		CreatedAt:            base,
		UpdatedAt:            base.Add(age),
	}).Error)
}

func seedItem(t *testing.T, db *gorm.DB, id, planID snowflake.ID, method ppmpdomain.ProcurementMethod, total string) {
	t.Helper()
	require.NoError(t, db.Create(&ppmpdomain.LineItem{
		ID:                id,
		PlanID:            planID,
		ItemNo:            id.String(),
		Category:          ppmpdomain.CategoryGoods,
		Description:       "Item " + id.String(),
		Quantity:          1,
		Unit:              "lot",
		UnitCost:          decimal.RequireFromString(total),
		TotalCost:         decimal.RequireFromString(total),
		ProcurementMethod: method,
		CreatedAt:         base,
		UpdatedAt:         base,
	}).Error)
}

func seedLink(t *testing.T, db *gorm.DB, id, planID, itemID snowflake.ID, voucher string) {
	t.Helper()
	require.NoError(t, db.Create(&disbursementdomain.Link{
		ID:             id,
		PlanID:         planID,
		ItemID:         itemID,
		DisbursementID: voucher,
		CreatedByID:    1,
		CreatedAt:      base,
	}).Error)
}

func seedDataset(t *testing.T, db *gorm.DB) {
	seedPlan(t, db, 100, lifecycle.StatusApproved, deptEngineering, 2026, "1000", 1*time.Hour)
	seedPlan(t, db, 200, lifecycle.StatusDraft, deptEngineering, 2026, "500", 2*time.Hour)
	seedPlan(t, db, 300, lifecycle.StatusSubmitted, deptHealth, 2025, "500", 3*time.Hour)
	seedPlan(t, db, 400, lifecycle.StatusSubmitted, deptMissing, 2026, "0", 0)

	seedItem(t, db, 101, 100, ppmpdomain.MethodShopping, "600")
	seedItem(t, db, 102, 100, ppmpdomain.MethodCompetitiveBidding, "400")
	seedItem(t, db, 201, 200, ppmpdomain.MethodShopping, "500")
	seedItem(t, db, 301, 300, ppmpdomain.MethodRepeatOrder, "500")

	require.NoError(t, db.Create(&[]disbursementdomain.Voucher{
		{ID: "DV-1", Payee: "Acme", Amount: decimal.RequireFromString("300"), Status: "RELEASED", CreatedAt: base},
		{ID: "DV-2", Payee: "Bayan", Amount: decimal.RequireFromString("100"), Status: "RELEASED", CreatedAt: base},
	}).Error)
	seedLink(t, db, 1, 100, 101, "DV-1")
	seedLink(t, db, 2, 100, 102, "DV-1")
	seedLink(t, db, 3, 100, 102, "DV-2")
}

func TestReportAggregates(t *testing.T) {
	svc, db := newReportingService(t, config.DefaultPPMPConfig())
	seedDataset(t, db)
	admin := authorization.Actor{UserID: 5, Role: authorization.RoleAdmin}

	report, err := svc.Report(context.Background(), admin, domain.Filter{})
	require.NoError(t, err)

	assert.EqualValues(t, 4, report.Summary.TotalPPMP)
	assert.EqualValues(t, 1, report.Summary.ApprovedPPMP)
	assert.True(t, decimal.RequireFromString("2000").Equal(report.Summary.TotalBudget))
	assert.True(t, decimal.RequireFromString("400").Equal(report.Summary.UtilizedBudget))
	assert.True(t, decimal.RequireFromString("0.2").Equal(report.Summary.UtilizationRate))

	require.Len(t, report.ByStatus, 3)
	assert.Equal(t, "DRAFT", report.ByStatus[0].Status)
	assert.Equal(t, domain.StatusCount{Status: "SUBMITTED", Count: 2, Percentage: 50}, report.ByStatus[1])
	assert.Equal(t, 25.0, report.ByStatus[2].Percentage)

	require.Len(t, report.ByDepartment, 3)
	assert.Equal(t, "Engineering", report.ByDepartment[0].Department)
	assert.EqualValues(t, 2, report.ByDepartment[0].Count)
	assert.True(t, decimal.RequireFromString("1500").Equal(report.ByDepartment[0].TotalBudget))
	assert.Equal(t, "Unknown", report.ByDepartment[2].Department)

	require.Len(t, report.ByFiscalYear, 2)
	assert.Equal(t, 2025, report.ByFiscalYear[0].Year)
	assert.EqualValues(t, 3, report.ByFiscalYear[1].Count)

	require.Len(t, report.ProcurementMethods, 3)
	assert.Equal(t, "SHOPPING", report.ProcurementMethods[0].Method)
	assert.EqualValues(t, 2, report.ProcurementMethods[0].Count)
	assert.True(t, decimal.RequireFromString("1100").Equal(report.ProcurementMethods[0].TotalValue))

	require.Len(t, report.TopItems, 4)
	assert.Equal(t, snowflake.ID(101), report.TopItems[0].ID)
	assert.Equal(t, snowflake.ID(100), report.TopItems[0].PlanID)
}

func TestReportFiltersAndLimits(t *testing.T) {
	cfg := config.DefaultPPMPConfig()
	cfg.Reports.TopItemsLimit = 1
	svc, db := newReportingService(t, cfg)
	seedDataset(t, db)
	approver := authorization.Actor{UserID: 4, Role: authorization.RoleApprover}

	year := 2025
	report, err := svc.Report(context.Background(), approver, domain.Filter{FiscalYear: &year})
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Summary.TotalPPMP)
	assert.True(t, report.Summary.UtilizedBudget.IsZero())
	require.Len(t, report.TopItems, 1)
	assert.Equal(t, snowflake.ID(301), report.TopItems[0].ID)

	dept := deptEngineering
	report, err = svc.Report(context.Background(), approver, domain.Filter{DepartmentID: &dept})
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.Summary.TotalPPMP)
	assert.True(t, decimal.RequireFromString("400").Equal(report.Summary.UtilizedBudget))
}

func TestReportEmptyDataset(t *testing.T) {
	svc, _ := newReportingService(t, config.DefaultPPMPConfig())
	admin := authorization.Actor{UserID: 5, Role: authorization.RoleAdmin}

	report, err := svc.Report(context.Background(), admin, domain.Filter{})
	require.NoError(t, err)
	assert.Zero(t, report.Summary.TotalPPMP)
	assert.True(t, report.Summary.UtilizationRate.IsZero())
	assert.Empty(t, report.ByStatus)
	assert.NotNil(t, report.ByDepartment)
	assert.Empty(t, report.TopItems)
}

func TestPreparerReportsAreDepartmentScoped(t *testing.T) {
	svc, db := newReportingService(t, config.DefaultPPMPConfig())
	seedDataset(t, db)
	dept := deptHealth
	preparer := authorization.Actor{UserID: 1, Role: authorization.RolePreparer, DepartmentID: &dept}

	report, err := svc.Report(context.Background(), preparer, domain.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Summary.TotalPPMP)

	stats, err := svc.Stats(context.Background(), preparer)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 1, Submitted: 1}, stats)

	recent, err := svc.Recent(context.Background(), preparer)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Health", recent[0].DepartmentName)

	_, err = svc.PendingApprovals(context.Background(), preparer)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestStatsAndRecent(t *testing.T) {
	cfg := config.DefaultPPMPConfig()
	cfg.Dashboard.RecentLimit = 2
	svc, db := newReportingService(t, cfg)
	seedDataset(t, db)
	seedPlan(t, db, 500, lifecycle.StatusImplemented, deptHealth, 2024, "10", 0)
	mayor := authorization.Actor{UserID: 6, Role: authorization.RoleMayor}

	stats, err := svc.Stats(context.Background(), mayor)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 5, Draft: 1, Submitted: 2, Approved: 1, Implemented: 1}, stats)

	recent, err := svc.Recent(context.Background(), mayor)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, snowflake.ID(300), recent[0].ID)
	assert.Equal(t, snowflake.ID(200), recent[1].ID)
}

func TestPendingApprovalsOldestFirst(t *testing.T) {
	svc, db := newReportingService(t, config.DefaultPPMPConfig())
	seedDataset(t, db)
	require.NoError(t, db.Create(&authdomain.User{
		ID: 1, Name: "Ana", Email: "ana@lgu.example", Role: "PPMP_PREPARER", CreatedAt: base, UpdatedAt: base,
	}).Error)
	finance := authorization.Actor{UserID: 7, Role: authorization.RoleFinanceHead}

	pending, err := svc.PendingApprovals(context.Background(), finance)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, snowflake.ID(400), pending[0].ID)
	assert.Equal(t, snowflake.ID(300), pending[1].ID)
	assert.EqualValues(t, 1, pending[1].ItemCount)
	assert.Equal(t, "ana@lgu.example", pending[1].PreparedByEmail)
	assert.Equal(t, "Health", pending[1].DepartmentName)
}
