// Package aggregate keeps a plan's denormalized totals equal to the sums of
// its children. Every method must run inside the caller's transaction.
package aggregate

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Engine struct {
	log     *zap.Logger
	repo    domain.Repository
	clock   clock.Clock
	metrics *metrics.PPMPMetrics
}

func New(p Params) *Engine {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Engine{
		log:     p.Log.Named("ppmp.aggregate"),
		repo:    p.Repo,
		clock:   c,
		metrics: metrics.PPMP(),
	}
}

// Lock takes the plan row lock. Concurrent child writers on the same plan
// block here until the holder commits.
func (e *Engine) Lock(ctx context.Context, tx *gorm.DB, planID snowflake.ID) (*domain.Plan, error) {
	start := time.Now()
	plan, err := e.repo.LockPlan(ctx, tx, planID)
	e.metrics.ObservePlanLockWait(time.Since(start))
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

// RecomputeEstimated rewrites total_estimated_budget from the surviving items.
func (e *Engine) RecomputeEstimated(ctx context.Context, tx *gorm.DB, planID snowflake.ID) (decimal.Decimal, error) {
	start := time.Now()
	costs, err := e.repo.ListItemCosts(ctx, tx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	total := Sum(costs)
	if err := e.repo.UpdatePlanFields(ctx, tx, planID, map[string]any{
		"total_estimated_budget": total,
		"updated_at":             e.clock.Now(),
	}); err != nil {
		return decimal.Zero, err
	}
	e.metrics.ObserveAggregate(metrics.AggregateEstimated, time.Since(start))
	e.log.Debug("recomputed estimated budget",
		zap.String("ppmp_id", planID.String()),
		zap.Int("items", len(costs)),
		zap.String("total", total.StringFixed(2)),
	)
	return total, nil
}

// RecomputeAllocated rewrites total_allocated_budget from the surviving allocations.
func (e *Engine) RecomputeAllocated(ctx context.Context, tx *gorm.DB, planID snowflake.ID) (decimal.Decimal, error) {
	start := time.Now()
	amounts, err := e.repo.ListAllocatedAmounts(ctx, tx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	total := Sum(amounts)
	if err := e.repo.UpdatePlanFields(ctx, tx, planID, map[string]any{
		"total_allocated_budget": total,
		"updated_at":             e.clock.Now(),
	}); err != nil {
		return decimal.Zero, err
	}
	e.metrics.ObserveAggregate(metrics.AggregateAllocated, time.Since(start))
	e.log.Debug("recomputed allocated budget",
		zap.String("ppmp_id", planID.String()),
		zap.Int("allocations", len(amounts)),
		zap.String("total", total.StringFixed(2)),
	)
	return total, nil
}

func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(value)
	}
	return total
}

// LineTotal is quantity x unit cost rounded to centavos.
func LineTotal(quantity int, unitCost decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
