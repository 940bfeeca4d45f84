package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	"github.com/smallbiznis/ppmp/internal/observability/logger"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Submit(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*domain.Plan, error) {
	return s.transition(ctx, actor, id, lifecycle.StatusSubmitted, func(tx *gorm.DB, plan *domain.Plan) (map[string]any, error) {
		items, err := s.repo.CountItems(ctx, tx, plan.ID)
		if err != nil {
			return nil, err
		}
		allocations, err := s.repo.CountAllocations(ctx, tx, plan.ID)
		if err != nil {
			return nil, err
		}
		if err := lifecycle.CheckSubmit(lifecycle.SubmitFacts{
			Status:          plan.Status,
			ItemCount:       items,
			AllocationCount: allocations,
		}); err != nil {
			return nil, err
		}
		if !actor.IsAdmin() && plan.PreparedByID != actor.UserID {
			return nil, lifecycle.ErrNotAuthor
		}
		if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionSubmit); err != nil {
			return nil, err
		}
		now := s.clock.Now()
		return map[string]any{
			"status":       lifecycle.StatusSubmitted,
			"submitted_at": now,
			"updated_at":   now,
		}, nil
	})
}

func (s *Service) Approve(ctx context.Context, actor authorization.Actor, id snowflake.ID, req domain.ApproveRequest) (*domain.Plan, error) {
	plan, err := s.transition(ctx, actor, id, lifecycle.StatusApproved, func(tx *gorm.DB, plan *domain.Plan) (map[string]any, error) {
		if err := lifecycle.CheckReview(plan.Status, lifecycle.StatusApproved); err != nil {
			return nil, err
		}
		if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionApprove); err != nil {
			return nil, err
		}
		now := s.clock.Now()
		fields := map[string]any{
			"status":         lifecycle.StatusApproved,
			"approved_by_id": actor.UserID,
			"approved_at":    now,
			"updated_at":     now,
		}
		if remarks := trimmedPtr(req.Remarks); remarks != nil {
			fields["remarks"] = *remarks
		}
		return fields, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notificationdomain.Notice{
		UserID:     plan.PreparedByID,
		Type:       notificationdomain.TypePlanApproved,
		Title:      "PPMP Approved",
		Message:    fmt.Sprintf("Your PPMP %q has been approved.", plan.Title),
		EntityType: auditdomain.EntityPlan,
		EntityID:   planIDPtr(plan.ID),
	})
	return plan, nil
}

func (s *Service) Reject(ctx context.Context, actor authorization.Actor, id snowflake.ID, req domain.RejectRequest) (*domain.Plan, error) {
	reason := strings.TrimSpace(req.Reason)
	plan, err := s.transition(ctx, actor, id, lifecycle.StatusRejected, func(tx *gorm.DB, plan *domain.Plan) (map[string]any, error) {
		if err := lifecycle.CheckReject(plan.Status, reason); err != nil {
			return nil, err
		}
		if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionReject); err != nil {
			return nil, err
		}
		return map[string]any{
			"status":     lifecycle.StatusRejected,
			"remarks":    reason,
			"updated_at": s.clock.Now(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notificationdomain.Notice{
		UserID:     plan.PreparedByID,
		Type:       notificationdomain.TypePlanRejected,
		Title:      "PPMP Rejected",
		Message:    fmt.Sprintf("Your PPMP %q has been rejected. Reason: %s", plan.Title, reason),
		EntityType: auditdomain.EntityPlan,
		EntityID:   planIDPtr(plan.ID),
	})
	return plan, nil
}

type transitionFunc func(tx *gorm.DB, plan *domain.Plan) (map[string]any, error)

// transition runs one lifecycle edge: lock, guard, single UPDATE, commit, then audit.
func (s *Service) transition(ctx context.Context, actor authorization.Actor, id snowflake.ID, target lifecycle.Status, guard transitionFunc) (*domain.Plan, error) {
	if _, err := s.Access(ctx, actor, id, authorization.ActionView); err != nil {
		return nil, err
	}

	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, id)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var before, after *domain.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.engine.Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, plan, authorization.ActionView); err != nil {
			return err
		}
		fields, err := guard(tx, plan)
		if err != nil {
			return err
		}
		if !lifecycle.CanTransition(plan.Status, target) {
			return lifecycle.ErrInvalidTransition
		}
		before = plan
		if err := s.repo.UpdatePlanFields(ctx, tx, id, fields); err != nil {
			return err
		}
		after, err = s.repo.FindPlanByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.lifecycle.RecordTransition(string(before.Status), string(after.Status))
	logger.WithPlan(logger.WithContext(ctx, s.log), id.String()).Info("ppmp status changed",
		zap.String("from", string(before.Status)),
		zap.String("to", string(after.Status)),
		zap.String("actor_id", actor.UserID.String()),
	)

	oldValues := map[string]any{"status": string(before.Status)}
	newValues := map[string]any{"status": string(after.Status)}
	if after.Remarks != nil {
		newValues["remarks"] = *after.Remarks
	}
	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     transitionAction(target),
		EntityType: auditdomain.EntityPlan,
		EntityID:   id,
		PlanID:     planIDPtr(id),
		OldValues:  oldValues,
		NewValues:  newValues,
	})
	return after, nil
}

func (s *Service) notify(ctx context.Context, notice notificationdomain.Notice) {
	if s.notificationSvc == nil {
		return
	}
	if err := s.notificationSvc.Notify(ctx, notice); err != nil {
		s.log.Warn("failed to notify preparer", zap.String("type", notice.Type), zap.Error(err))
	}
}

func transitionAction(target lifecycle.Status) auditdomain.Action {
	switch target {
	case lifecycle.StatusSubmitted:
		return auditdomain.ActionSubmit
	case lifecycle.StatusApproved:
		return auditdomain.ActionApprove
	default:
		return auditdomain.ActionReject
	}
}
