package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/config"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	"github.com/smallbiznis/ppmp/internal/observability/logger"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	"github.com/smallbiznis/ppmp/internal/ppmp/aggregate"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	refdomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	"github.com/smallbiznis/ppmp/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Repo            domain.Repository
	Engine          *aggregate.Engine
	Authz           authorization.Service
	RefRepo         refdomain.Repository
	AuditSvc        auditdomain.Service        `optional:"true"`
	NotificationSvc notificationdomain.Service `optional:"true"`
	Guard           domain.TransitionGuard     `optional:"true"`
	Clock           clock.Clock                `optional:"true"`
	Config          *config.PPMPConfigHolder   `optional:"true"`
	Metrics         *metrics.Metrics           `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	repo            domain.Repository
	engine          *aggregate.Engine
	authz           authorization.Service
	refRepo         refdomain.Repository
	auditSvc        auditdomain.Service
	notificationSvc notificationdomain.Service
	guard           domain.TransitionGuard
	clock           clock.Clock
	cfg             *config.PPMPConfigHolder
	metrics         *metrics.Metrics
	lifecycle       *metrics.PPMPMetrics
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("ppmp.service"),
		genID:           p.GenID,
		repo:            p.Repo,
		engine:          p.Engine,
		authz:           p.Authz,
		refRepo:         p.RefRepo,
		auditSvc:        p.AuditSvc,
		notificationSvc: p.NotificationSvc,
		guard:           p.Guard,
		clock:           c,
		cfg:             p.Config,
		metrics:         p.Metrics,
		lifecycle:       metrics.PPMP(),
	}
}

func (s *Service) Access(ctx context.Context, actor authorization.Actor, planID snowflake.ID, action authorization.Action) (*domain.Plan, error) {
	if planID == 0 {
		return nil, domain.ErrNotFound
	}
	plan, err := s.repo.FindPlanByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.authorize(ctx, actor, plan, action); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) Permissions(actor authorization.Actor, plan *domain.Plan) authorization.ActionSet {
	return s.authz.Permitted(actor, plan.PlanContext())
}

// authorize requires view plus the requested action on the plan's current state.
func (s *Service) authorize(ctx context.Context, actor authorization.Actor, plan *domain.Plan, action authorization.Action) error {
	if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionView); err != nil {
		return err
	}
	if action == authorization.ActionView {
		return nil
	}
	return s.authz.Authorize(ctx, actor, plan.PlanContext(), action)
}

// lockForEdit locks the plan and re-checks the edit permission against the locked row.
func (s *Service) lockForEdit(ctx context.Context, tx *gorm.DB, actor authorization.Actor, planID snowflake.ID) (*domain.Plan, error) {
	plan, err := s.engine.Lock(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, plan, authorization.ActionEdit); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) emitAudit(ctx context.Context, actor authorization.Actor, entry auditdomain.Entry) {
	entry.UserID = actor.UserID
	if s.metrics != nil {
		s.metrics.RecordMutation(ctx, entry.EntityType, string(entry.Action))
	}
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		logger.WithContext(ctx, s.log).Warn("audit entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("entity_id", entry.EntityID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) listConfig() config.PPMPConfig {
	return s.cfg.Get()
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateItemNo
	}
	return err
}

func planValues(plan *domain.Plan) map[string]any {
	if plan == nil {
		return nil
	}
	values := map[string]any{
		"title":                  plan.Title,
		"fiscal_year":            plan.FiscalYear,
		"status":                 string(plan.Status),
		"department_id":          plan.DepartmentID.String(),
		"total_estimated_budget": plan.TotalEstimatedBudget.StringFixed(2),
		"total_allocated_budget": plan.TotalAllocatedBudget.StringFixed(2),
	}
	if plan.Description != nil {
		values["description"] = *plan.Description
	}
	if plan.Remarks != nil {
		values["remarks"] = *plan.Remarks
	}
	return values
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func planIDPtr(id snowflake.ID) *snowflake.ID {
	return &id
}
