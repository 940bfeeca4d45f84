package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	auditrepository "github.com/smallbiznis/ppmp/internal/audit/repository"
	auditservice "github.com/smallbiznis/ppmp/internal/audit/service"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"github.com/smallbiznis/ppmp/internal/purchaserequest/repository"
	referencedomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	"github.com/smallbiznis/ppmp/internal/testutil"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	deptGSO    snowflake.ID = 40
	deptHealth snowflake.ID = 41
)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock

	preparer authorization.Actor
	outsider authorization.Actor
	approver authorization.Actor
	admin    authorization.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&referencedomain.Department{},
		&authdomain.User{},
		&ppmpdomain.Plan{},
		&ppmpdomain.LineItem{},
		&domain.PurchaseRequest{},
		&domain.Line{},
		&auditdomain.AuditLog{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, db.Create(&[]referencedomain.Department{
		{ID: deptGSO, Code: "GSO", Name: "General Services Office", CreatedAt: fake.Now()},
		{ID: deptHealth, Code: "MHO", Name: "Municipal Health Office", CreatedAt: fake.Now()},
	}).Error)

	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(), Clock: fake,
	})
	gso, health := deptGSO, deptHealth
	return &fixture{
		db:    db,
		clock: fake,
		svc: NewService(Params{
			DB:       db,
			Log:      log,
			GenID:    node,
			Repo:     repository.Provide(),
			AuditSvc: audit,
			Clock:    fake,
		}),
		preparer: authorization.Actor{UserID: 11, Role: authorization.RolePreparer, DepartmentID: &gso},
		outsider: authorization.Actor{UserID: 12, Role: authorization.RolePreparer, DepartmentID: &health},
		approver: authorization.Actor{UserID: 13, Role: authorization.RoleApprover},
		admin:    authorization.Actor{UserID: 14, Role: authorization.RoleAdmin},
	}
}

// seedItem stores a plan in the given state with one item of the given quantity.
func (f *fixture) seedItem(t *testing.T, planID snowflake.ID, dept snowflake.ID, status lifecycle.Status, qty int) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.db.Create(&ppmpdomain.Plan{
		ID:           planID,
		Title:        "Janitorial supplies",
		FiscalYear:   2026,
		Status:       status,
		DepartmentID: dept,
		PreparedByID: 11,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error)
	itemID := planID + 1
	require.NoError(t, f.db.Create(&ppmpdomain.LineItem{
		ID:                itemID,
		PlanID:            planID,
		ItemNo:            "1",
		Category:          ppmpdomain.CategoryGoods,
		Description:       "Floor wax",
		Quantity:          qty,
		Unit:              "can",
		UnitCost:          decimal.RequireFromString("250"),
		TotalCost:         decimal.NewFromInt(int64(qty) * 250),
		ProcurementMethod: ppmpdomain.MethodShopping,
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error)
	return itemID
}

func (f *fixture) storedAligned(t *testing.T, id snowflake.ID) bool {
	t.Helper()
	var pr domain.PurchaseRequest
	require.NoError(t, f.db.First(&pr, "id = ?", id).Error)
	return pr.PPMPAligned
}

func lineOf(itemID snowflake.ID, qty string) domain.LineRequest {
	return domain.LineRequest{ItemID: itemID, Quantity: decimal.RequireFromString(qty)}
}

func strPtr(v string) *string { return &v }

func TestAlignmentFollowsApprovedPlanQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.seedItem(t, 100, deptGSO, lifecycle.StatusApproved, 5)

	pr, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-2026-0101",
		Purpose:  strPtr("  Quarterly cleaning  "),
		Products: []domain.LineRequest{lineOf(itemID, "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, pr.Status)
	assert.Equal(t, "Quarterly cleaning", *pr.Purpose)
	assert.Equal(t, "General Services Office", pr.DepartmentName)
	assert.True(t, pr.PPMPAligned)
	require.Len(t, pr.Products, 1)
	assert.Equal(t, "can", pr.Products[0].Unit)
	assert.Equal(t, snowflake.ID(100), pr.Products[0].PlanID)

	extra, err := f.svc.AddProduct(ctx, f.preparer, pr.ID, lineOf(itemID, "3"))
	require.NoError(t, err)
	assert.False(t, extra.Aligned)
	assert.False(t, f.storedAligned(t, pr.ID))

	require.NoError(t, f.svc.RemoveProduct(ctx, f.preparer, pr.ID, extra.ID))
	assert.True(t, f.storedAligned(t, pr.ID))

	lines, err := f.svc.ListProducts(ctx, f.preparer, pr.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Aligned)
}

func TestLinesOutsideApprovedDepartmentPlansAreNotAligned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draftItem := f.seedItem(t, 200, deptGSO, lifecycle.StatusDraft, 10)
	foreignItem := f.seedItem(t, 300, deptHealth, lifecycle.StatusApproved, 10)

	pr, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-2026-0201",
		Products: []domain.LineRequest{lineOf(draftItem, "1"), lineOf(foreignItem, "1")},
	})
	require.NoError(t, err)
	assert.False(t, pr.PPMPAligned)
	require.Len(t, pr.Products, 2)
	for _, line := range pr.Products {
		assert.False(t, line.Aligned, line.ItemID.String())
	}

	empty, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: "PR-2026-0202"})
	require.NoError(t, err)
	assert.False(t, empty.PPMPAligned)
	assert.Empty(t, empty.Products)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.seedItem(t, 100, deptGSO, lifecycle.StatusApproved, 5)

	_, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidPRNo)

	_, err = f.svc.Create(ctx, f.approver, domain.CreateRequest{PRNo: "PR-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidDepartment)

	other := deptHealth
	_, err = f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: "PR-1", DepartmentID: &other})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-1",
		Products: []domain.LineRequest{lineOf(itemID, "0")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-1",
		Products: []domain.LineRequest{lineOf(itemID, "1"), lineOf(999, "1")},
	})
	assert.ErrorIs(t, err, ppmpdomain.ErrItemNotFound)
	var count int64
	require.NoError(t, f.db.Model(&domain.PurchaseRequest{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&domain.Line{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = f.svc.Create(ctx, f.admin, domain.CreateRequest{PRNo: "PR-1", DepartmentID: &other})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: " PR-1 "})
	assert.ErrorIs(t, err, domain.ErrDuplicatePRNo)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.seedItem(t, 100, deptGSO, lifecycle.StatusApproved, 5)

	pr, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: "PR-2026-0301"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.preparer, pr.ID, domain.UpdateRequest{Status: strPtr("SUBMITTED")})
	assert.ErrorIs(t, err, domain.ErrNoLines)

	_, err = f.svc.AddProduct(ctx, f.preparer, pr.ID, lineOf(itemID, "2"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.preparer, pr.ID, domain.UpdateRequest{Status: strPtr("bogus")})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	submitted, err := f.svc.Update(ctx, f.preparer, pr.ID, domain.UpdateRequest{Status: strPtr("submitted")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)

	_, err = f.svc.Update(ctx, f.preparer, pr.ID, domain.UpdateRequest{Remarks: strPtr("rush")})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
	_, err = f.svc.AddProduct(ctx, f.preparer, pr.ID, lineOf(itemID, "1"))
	assert.ErrorIs(t, err, domain.ErrNotEditable)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.preparer, pr.ID), domain.ErrNotEditable)

	_, err = f.svc.Update(ctx, f.preparer, pr.ID, domain.UpdateRequest{Status: strPtr("APPROVED")})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	approved, err := f.svc.Update(ctx, f.approver, pr.ID, domain.UpdateRequest{Status: strPtr("APPROVED")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.True(t, approved.PPMPAligned)

	_, err = f.svc.Update(ctx, f.approver, pr.ID, domain.UpdateRequest{Status: strPtr("REJECTED")})
	assert.ErrorIs(t, err, domain.ErrTransition)

	remarked, err := f.svc.Update(ctx, f.admin, pr.ID, domain.UpdateRequest{Remarks: strPtr("Delivered in August")})
	require.NoError(t, err)
	assert.Equal(t, "Delivered in August", *remarked.Remarks)

	var actions []string
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", auditdomain.EntityPurchase, pr.ID).
		Order("id asc").
		Pluck("action", &actions).Error)
	assert.Equal(t, []string{"CREATE", "SUBMIT", "APPROVE", "UPDATE"}, actions)
}

func TestVisibilityAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.seedItem(t, 100, deptGSO, lifecycle.StatusApproved, 5)

	aligned, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-2026-0401",
		Products: []domain.LineRequest{lineOf(itemID, "1")},
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.Create(ctx, f.preparer, domain.CreateRequest{PRNo: "PR-2026-0402"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.Create(ctx, f.outsider, domain.CreateRequest{PRNo: "PR-2026-0403"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.outsider, aligned.ID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
	_, err = f.svc.Get(ctx, f.preparer, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := f.svc.List(ctx, f.preparer, domain.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalCount)
	require.Len(t, mine.PurchaseRequests, 2)
	assert.Equal(t, "PR-2026-0402", mine.PurchaseRequests[0].PRNo)

	all, err := f.svc.List(ctx, f.approver, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)
	assert.Len(t, all.PurchaseRequests, 2)
	assert.True(t, all.HasMore)

	yes := true
	filtered, err := f.svc.List(ctx, f.approver, domain.ListRequest{Aligned: &yes})
	require.NoError(t, err)
	require.Len(t, filtered.PurchaseRequests, 1)
	assert.Equal(t, aligned.ID, filtered.PurchaseRequests[0].ID)

	health := deptHealth
	drafts, err := f.svc.List(ctx, f.approver, domain.ListRequest{Status: "draft", DepartmentID: &health})
	require.NoError(t, err)
	assert.Equal(t, int64(1), drafts.TotalCount)

	_, err = f.svc.List(ctx, f.approver, domain.ListRequest{Status: "PENDING"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeleteRemovesProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.seedItem(t, 100, deptGSO, lifecycle.StatusApproved, 5)

	pr, err := f.svc.Create(ctx, f.preparer, domain.CreateRequest{
		PRNo:     "PR-2026-0501",
		Products: []domain.LineRequest{lineOf(itemID, "1"), lineOf(itemID, "2")},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.outsider, pr.ID), authorization.ErrForbidden)
	assert.ErrorIs(t, f.svc.RemoveProduct(ctx, f.preparer, pr.ID, 777), domain.ErrLineNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.preparer, pr.ID))
	_, err = f.svc.Get(ctx, f.preparer, pr.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var lines int64
	require.NoError(t, f.db.Model(&domain.Line{}).Count(&lines).Error)
	assert.Zero(t, lines)
}
