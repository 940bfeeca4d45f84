package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"gorm.io/gorm"
)

func (s *Service) ListAllocations(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]domain.BudgetAllocation, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionView); err != nil {
		return nil, err
	}
	allocations, err := s.repo.ListAllocations(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if allocations == nil {
		allocations = []domain.BudgetAllocation{}
	}
	return allocations, nil
}

func (s *Service) AddAllocation(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req domain.CreateAllocationRequest) (*domain.BudgetAllocation, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}

	budgetCode := strings.TrimSpace(req.BudgetCode)
	if budgetCode == "" {
		return nil, domain.ErrInvalidBudgetCode
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidDescription
	}
	if req.AllocatedAmount == nil || req.AllocatedAmount.IsNegative() {
		return nil, domain.ErrInvalidAllocatedAmount
	}
	if req.ExpendedAmount != nil && req.ExpendedAmount.IsNegative() {
		return nil, domain.ErrInvalidExpendedAmount
	}

	now := s.clock.Now()
	allocation := &domain.BudgetAllocation{
		ID:              s.genID.Generate(),
		PlanID:          planID,
		BudgetCode:      budgetCode,
		Description:     description,
		AllocatedAmount: req.AllocatedAmount.Round(2),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.ExpendedAmount != nil {
		allocation.ExpendedAmount = req.ExpendedAmount.Round(2)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		if err := s.repo.InsertAllocation(ctx, tx, allocation); err != nil {
			return err
		}
		_, err := s.engine.RecomputeAllocated(ctx, tx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityAllocation,
		EntityID:   allocation.ID,
		PlanID:     planIDPtr(planID),
		NewValues:  allocationValues(allocation),
	})
	return allocation, nil
}

func (s *Service) UpdateAllocation(ctx context.Context, actor authorization.Actor, planID, allocationID snowflake.ID, req domain.UpdateAllocationRequest) (*domain.BudgetAllocation, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}
	if req.BudgetCode != nil && strings.TrimSpace(*req.BudgetCode) == "" {
		return nil, domain.ErrInvalidBudgetCode
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return nil, domain.ErrInvalidDescription
	}
	if req.AllocatedAmount != nil && req.AllocatedAmount.IsNegative() {
		return nil, domain.ErrInvalidAllocatedAmount
	}
	if req.ExpendedAmount != nil && req.ExpendedAmount.IsNegative() {
		return nil, domain.ErrInvalidExpendedAmount
	}

	var before map[string]any
	var updated *domain.BudgetAllocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		allocation, err := s.repo.FindAllocation(ctx, tx, planID, allocationID)
		if err != nil {
			return err
		}
		if allocation == nil {
			return domain.ErrAllocationNotFound
		}
		before = allocationValues(allocation)

		if req.BudgetCode != nil {
			allocation.BudgetCode = strings.TrimSpace(*req.BudgetCode)
		}
		if req.Description != nil {
			allocation.Description = strings.TrimSpace(*req.Description)
		}
		if req.ExpendedAmount != nil {
			allocation.ExpendedAmount = req.ExpendedAmount.Round(2)
		}
		amountChanged := req.AllocatedAmount != nil && !req.AllocatedAmount.Round(2).Equal(allocation.AllocatedAmount)
		if amountChanged {
			allocation.AllocatedAmount = req.AllocatedAmount.Round(2)
		}
		allocation.UpdatedAt = s.clock.Now()

		if err := s.repo.SaveAllocation(ctx, tx, allocation); err != nil {
			return err
		}
		if amountChanged {
			if _, err := s.engine.RecomputeAllocated(ctx, tx, planID); err != nil {
				return err
			}
		}
		updated = allocation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionUpdate,
		EntityType: auditdomain.EntityAllocation,
		EntityID:   allocationID,
		PlanID:     planIDPtr(planID),
		OldValues:  before,
		NewValues:  allocationValues(updated),
	})
	return updated, nil
}

func (s *Service) DeleteAllocation(ctx context.Context, actor authorization.Actor, planID, allocationID snowflake.ID) error {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return err
	}

	var removed *domain.BudgetAllocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		allocation, err := s.repo.FindAllocation(ctx, tx, planID, allocationID)
		if err != nil {
			return err
		}
		if allocation == nil {
			return domain.ErrAllocationNotFound
		}
		removed = allocation
		if err := s.repo.DeleteAllocation(ctx, tx, planID, allocationID); err != nil {
			return err
		}
		_, err = s.engine.RecomputeAllocated(ctx, tx, planID)
		return err
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityAllocation,
		EntityID:   allocationID,
		PlanID:     planIDPtr(planID),
		OldValues:  allocationValues(removed),
	})
	return nil
}

func allocationValues(allocation *domain.BudgetAllocation) map[string]any {
	if allocation == nil {
		return nil
	}
	return map[string]any{
		"budget_code":      allocation.BudgetCode,
		"description":      allocation.Description,
		"allocated_amount": allocation.AllocatedAmount.StringFixed(2),
		"expended_amount":  allocation.ExpendedAmount.StringFixed(2),
	}
}
