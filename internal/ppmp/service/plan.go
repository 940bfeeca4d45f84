package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minFiscalYear = 2000
	maxFiscalYear = 2100
)

func (s *Service) Create(ctx context.Context, actor authorization.Actor, req domain.CreatePlanRequest) (*domain.Plan, error) {
	if !s.authz.Permitted(actor, nil).Has(authorization.ActionCreate) {
		return nil, authorization.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if err := validateFiscalYear(req.FiscalYear); err != nil {
		return nil, err
	}
	if req.DepartmentID == 0 {
		return nil, domain.ErrInvalidDepartment
	}

	draft := &authorization.PlanContext{
		Status:       lifecycle.StatusDraft,
		DepartmentID: req.DepartmentID,
		PreparedByID: actor.UserID,
	}
	if err := s.authz.Authorize(ctx, actor, draft, authorization.ActionCreate); err != nil {
		return nil, err
	}

	department, err := s.refRepo.GetDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, domain.ErrInvalidDepartment
	}

	now := s.clock.Now()
	plan := &domain.Plan{
		ID:                   s.genID.Generate(),
		Title:                title,
		Description:          trimmedPtr(req.Description),
		FiscalYear:           req.FiscalYear,
		Status:               lifecycle.StatusDraft,
		TotalEstimatedBudget: decimal.Zero,
		TotalAllocatedBudget: decimal.Zero,
		DepartmentID:         req.DepartmentID,
		PreparedByID:         actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.InsertPlan(ctx, s.db, plan); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityPlan,
		EntityID:   plan.ID,
		PlanID:     planIDPtr(plan.ID),
		NewValues:  planValues(plan),
	})
	return plan, nil
}

func (s *Service) List(ctx context.Context, actor authorization.Actor, req domain.ListPlanRequest) (domain.ListPlanResponse, error) {
	if err := s.authz.Authorize(ctx, actor, nil, authorization.ActionView); err != nil {
		return domain.ListPlanResponse{}, err
	}

	cfg := s.listConfig()
	page := req.Pagination.Normalize(cfg.List.DefaultPageSize, cfg.List.MaxPageSize)

	filter := domain.PlanFilter{
		FiscalYear:   req.FiscalYear,
		DepartmentID: req.DepartmentID,
		Search:       req.Search,
		Limit:        page.PageSize,
		Offset:       page.Offset(),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" && !strings.EqualFold(raw, "all") {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			return domain.ListPlanResponse{}, domain.ErrInvalidStatusFilter
		}
		filter.Status = string(status)
	}

	if actor.Role == authorization.RolePreparer {
		if actor.DepartmentID == nil {
			return domain.ListPlanResponse{
				PageInfo: pagination.BuildPageInfo(page, 0),
				Plans:    []domain.PlanSummary{},
			}, nil
		}
		filter.DepartmentID = actor.DepartmentID
	}

	total, err := s.repo.CountPlans(ctx, s.db, filter)
	if err != nil {
		return domain.ListPlanResponse{}, err
	}
	plans, err := s.repo.ListPlans(ctx, s.db, filter)
	if err != nil {
		return domain.ListPlanResponse{}, err
	}
	if plans == nil {
		plans = []domain.PlanSummary{}
	}
	return domain.ListPlanResponse{
		PageInfo: pagination.BuildPageInfo(page, total),
		Plans:    plans,
	}, nil
}

func (s *Service) Get(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*domain.PlanDetail, error) {
	if _, err := s.Access(ctx, actor, id, authorization.ActionView); err != nil {
		return nil, err
	}

	summary, err := s.repo.FindPlanSummary(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, domain.ErrNotFound
	}

	detail := &domain.PlanDetail{PlanSummary: *summary}
	if summary.ApprovedByID != nil {
		if detail.ApprovedByName, err = s.repo.UserName(ctx, s.db, *summary.ApprovedByID); err != nil {
			return nil, err
		}
	}
	if detail.Items, err = s.repo.ListItems(ctx, s.db, id); err != nil {
		return nil, err
	}
	if detail.Allocations, err = s.repo.ListAllocations(ctx, s.db, id); err != nil {
		return nil, err
	}
	if detail.Activities, err = s.repo.ListActivities(ctx, s.db, id); err != nil {
		return nil, err
	}
	if detail.Items == nil {
		detail.Items = []domain.LineItem{}
	}
	if detail.Allocations == nil {
		detail.Allocations = []domain.BudgetAllocation{}
	}
	if detail.Activities == nil {
		detail.Activities = []domain.ProcurementActivity{}
	}
	return detail, nil
}

func (s *Service) Update(ctx context.Context, actor authorization.Actor, id snowflake.ID, req domain.UpdatePlanRequest) (*domain.Plan, error) {
	if _, err := s.Access(ctx, actor, id, authorization.ActionEdit); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = trimmedPtr(req.Description)
	}
	if req.FiscalYear != nil {
		if err := validateFiscalYear(*req.FiscalYear); err != nil {
			return nil, err
		}
		fields["fiscal_year"] = *req.FiscalYear
	}

	var before, after *domain.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockForEdit(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		before = locked
		if len(fields) == 0 {
			after = locked
			return nil
		}
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdatePlanFields(ctx, tx, id, fields); err != nil {
			return err
		}
		after, err = s.repo.FindPlanByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		s.emitAudit(ctx, actor, auditdomain.Entry{
			Action:     auditdomain.ActionUpdate,
			EntityType: auditdomain.EntityPlan,
			EntityID:   id,
			PlanID:     planIDPtr(id),
			OldValues:  planValues(before),
			NewValues:  planValues(after),
		})
	}
	return after, nil
}

func (s *Service) Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error {
	if _, err := s.Access(ctx, actor, id, authorization.ActionView); err != nil {
		return err
	}

	var deleted *domain.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.engine.Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, plan, authorization.ActionView); err != nil {
			return err
		}
		if err := lifecycle.CheckDelete(plan.Status); err != nil {
			return err
		}
		if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionDelete); err != nil {
			return err
		}
		deleted = plan
		return s.repo.DeletePlanCascade(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("ppmp deleted", zap.String("ppmp_id", id.String()), zap.String("actor_id", actor.UserID.String()))
	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityPlan,
		EntityID:   id,
		PlanID:     planIDPtr(id),
		OldValues:  planValues(deleted),
	})
	return nil
}

func validateFiscalYear(year int) error {
	if year < minFiscalYear || year > maxFiscalYear {
		return domain.ErrInvalidFiscalYear
	}
	return nil
}
