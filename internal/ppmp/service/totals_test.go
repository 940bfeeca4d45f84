package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sumItems(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalCost)
	}
	return total
}

func TestSubCentavoUnitCostKeepsTotalsConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.createPlan(t, f.preparer, deptEngineering)

	item := f.addItem(t, plan.ID, "1", 10, "0.125")
	assertAmount(t, "0.13", item.UnitCost)
	assertAmount(t, "1.30", item.TotalCost)

	stored, err := f.repo.FindItem(ctx, f.db, plan.ID, item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.UnitCost.Mul(decimal.NewFromInt(int64(stored.Quantity))).Equal(stored.TotalCost),
		"total %s != %d x %s", stored.TotalCost, stored.Quantity, stored.UnitCost)
	assertAmount(t, "1.30", f.reload(t, plan.ID).TotalEstimatedBudget)

	description := "Asphalt mix, cold"
	updated, err := f.svc.UpdateItem(ctx, f.preparer, plan.ID, item.ID, domain.UpdateItemRequest{Description: &description})
	require.NoError(t, err)
	assertAmount(t, "1.30", updated.TotalCost)
	assertAmount(t, "1.30", f.reload(t, plan.ID).TotalEstimatedBudget)

	cost := decimal.RequireFromString("0.333")
	updated, err = f.svc.UpdateItem(ctx, f.preparer, plan.ID, item.ID, domain.UpdateItemRequest{UnitCost: &cost})
	require.NoError(t, err)
	assertAmount(t, "0.33", updated.UnitCost)
	assertAmount(t, "3.30", updated.TotalCost)
	assertAmount(t, "3.30", f.reload(t, plan.ID).TotalEstimatedBudget)
}

func TestPatchRepairsDriftedEstimatedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.createPlan(t, f.preparer, deptEngineering)
	item := f.addItem(t, plan.ID, "1", 10, "5.00")

	// Rows written before unit costs were rounded on create.
	require.NoError(t, f.db.Model(&domain.LineItem{}).Where("id = ?", item.ID).
		Update("total_cost", decimal.RequireFromString("49.95")).Error)
	require.NoError(t, f.db.Model(&domain.Plan{}).Where("id = ?", plan.ID).
		Update("total_estimated_budget", decimal.RequireFromString("49.95")).Error)

	remarks := "re-canvassed"
	updated, err := f.svc.UpdateItem(ctx, f.preparer, plan.ID, item.ID, domain.UpdateItemRequest{Remarks: &remarks})
	require.NoError(t, err)
	assertAmount(t, "50.00", updated.TotalCost)
	assertAmount(t, "50.00", f.reload(t, plan.ID).TotalEstimatedBudget)
}

func TestConcurrentItemWritesKeepEstimatedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.createPlan(t, f.preparer, deptEngineering)

	const workers = 8
	seeded := make([]*domain.LineItem, 0, workers)
	for i := 0; i < workers; i++ {
		seeded = append(seeded, f.addItem(t, plan.ID, fmt.Sprintf("seed-%d", i), 1, "10.00"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			qty := n + 1
			cost := decimal.RequireFromString("2.50")
			_, err := f.svc.AddItem(ctx, f.preparer, plan.ID, domain.CreateItemRequest{
				ItemNo:            fmt.Sprintf("new-%d", n),
				Category:          string(domain.CategoryGoods),
				Description:       "Gravel",
				Quantity:          &qty,
				Unit:              "cu.m",
				UnitCost:          &cost,
				ProcurementMethod: string(domain.MethodShopping),
			})
			errs <- err
		}(i)
		go func(item *domain.LineItem) {
			defer wg.Done()
			errs <- f.svc.DeleteItem(ctx, f.preparer, plan.ID, item.ID)
		}(seeded[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := f.svc.ListItems(ctx, f.preparer, plan.ID)
	require.NoError(t, err)
	require.Len(t, items, workers)

	want := sumItems(items)
	assertAmount(t, "90.00", want)
	assert.True(t, want.Equal(f.reload(t, plan.ID).TotalEstimatedBudget))
}

type failingAudit struct {
	auditdomain.Service
}

func (failingAudit) Record(context.Context, auditdomain.Entry) error {
	return errors.New("audit store unavailable")
}

func TestAuditFailureKeepsMutation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, func(p *Params) {
		p.AuditSvc = failingAudit{}
		p.Log = zap.New(core)
	})
	ctx := context.Background()

	plan := f.createPlan(t, f.preparer, deptEngineering)
	f.addItem(t, plan.ID, "1", 2, "25.00")
	f.addAllocation(t, plan.ID, "5-02-03-010", "50.00")
	_, err := f.svc.Submit(ctx, f.preparer, plan.ID)
	require.NoError(t, err)

	stored := f.reload(t, plan.ID)
	assert.Equal(t, lifecycle.StatusSubmitted, stored.Status)
	assertAmount(t, "50.00", stored.TotalEstimatedBudget)
	assertAmount(t, "50.00", stored.TotalAllocatedBudget)

	var count int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)

	dropped := logs.FilterMessage("audit entry dropped").All()
	require.Len(t, dropped, 4)
	assert.Equal(t, "audit store unavailable", dropped[0].ContextMap()["error"])
}
