package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/ppmp/aggregate"
	"github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Service) ListItems(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]domain.LineItem, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionView); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items, nil
}

func (s *Service) AddItem(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req domain.CreateItemRequest) (*domain.LineItem, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}

	item, err := s.newItem(ctx, planID, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		exists, err := s.repo.ItemNoExists(ctx, tx, planID, item.ItemNo, 0)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateItemNo
		}
		if err := s.repo.InsertItem(ctx, tx, item); err != nil {
			return mapStoreError(err)
		}
		_, err = s.engine.RecomputeEstimated(ctx, tx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityItem,
		EntityID:   item.ID,
		PlanID:     planIDPtr(planID),
		NewValues:  itemValues(item),
	})
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor authorization.Actor, planID, itemID snowflake.ID, req domain.UpdateItemRequest) (*domain.LineItem, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}
	if err := validateItemPatch(req); err != nil {
		return nil, err
	}

	var before map[string]any
	var updated *domain.LineItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		item, err := s.repo.FindItem(ctx, tx, planID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		before = itemValues(item)

		if req.ItemNo != nil {
			itemNo := strings.TrimSpace(*req.ItemNo)
			exists, err := s.repo.ItemNoExists(ctx, tx, planID, itemNo, itemID)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrDuplicateItemNo
			}
			item.ItemNo = itemNo
		}
		storedTotal := item.TotalCost
		costChanged := applyItemPatch(item, req)
		if err := validateSchedule(item.Schedule.Data()); err != nil {
			return err
		}
		item.TotalCost = aggregate.LineTotal(item.Quantity, item.UnitCost)
		if !item.TotalCost.Equal(storedTotal) {
			costChanged = true
		}
		item.UpdatedAt = s.clock.Now()

		if err := s.repo.SaveItem(ctx, tx, item); err != nil {
			return mapStoreError(err)
		}
		if costChanged {
			if _, err := s.engine.RecomputeEstimated(ctx, tx, planID); err != nil {
				return err
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionUpdate,
		EntityType: auditdomain.EntityItem,
		EntityID:   itemID,
		PlanID:     planIDPtr(planID),
		OldValues:  before,
		NewValues:  itemValues(updated),
	})
	return updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, actor authorization.Actor, planID, itemID snowflake.ID) error {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return err
	}

	var removed *domain.LineItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		item, err := s.repo.FindItem(ctx, tx, planID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		removed = item
		if err := s.repo.DeleteItem(ctx, tx, planID, itemID); err != nil {
			return err
		}
		_, err = s.engine.RecomputeEstimated(ctx, tx, planID)
		return err
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityItem,
		EntityID:   itemID,
		PlanID:     planIDPtr(planID),
		OldValues:  itemValues(removed),
	})
	return nil
}

// newItem validates a create request, filling unit and cost from the product catalog when omitted.
func (s *Service) newItem(ctx context.Context, planID snowflake.ID, req domain.CreateItemRequest) (*domain.LineItem, error) {
	itemNo := strings.TrimSpace(req.ItemNo)
	if itemNo == "" {
		return nil, domain.ErrInvalidItemNo
	}
	category := domain.Category(strings.ToUpper(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidDescription
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	method := domain.ProcurementMethod(strings.ToUpper(strings.TrimSpace(req.ProcurementMethod)))
	if !method.Valid() {
		return nil, domain.ErrInvalidProcurementMethod
	}

	unit := strings.TrimSpace(req.Unit)
	unitCost := req.UnitCost
	if req.ProductID != nil {
		product, err := s.refRepo.GetProduct(ctx, *req.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrInvalidProduct
		}
		if unit == "" {
			unit = product.Unit
		}
		if unitCost == nil {
			cost := product.UnitCost
			unitCost = &cost
		}
	}
	if unit == "" {
		return nil, domain.ErrInvalidUnit
	}
	if unitCost == nil || unitCost.IsNegative() {
		return nil, domain.ErrInvalidUnitCost
	}

	schedule := domain.ItemSchedule{}
	if req.Schedule != nil {
		schedule = *req.Schedule
	}
	if err := validateSchedule(schedule); err != nil {
		return nil, err
	}
	monthly := domain.MonthlyAllocation{}
	if req.MonthlyAllocation != nil {
		monthly = *req.MonthlyAllocation
	}
	if err := validateMonthly(monthly); err != nil {
		return nil, err
	}

	cost := unitCost.Round(2)
	now := s.clock.Now()
	return &domain.LineItem{
		ID:                s.genID.Generate(),
		PlanID:            planID,
		ItemNo:            itemNo,
		Category:          category,
		Description:       description,
		Quantity:          *req.Quantity,
		Unit:              unit,
		UnitCost:          cost,
		TotalCost:         aggregate.LineTotal(*req.Quantity, cost),
		ProcurementMethod: method,
		Schedule:          datatypes.NewJSONType(schedule),
		MonthlyAllocation: monthly,
		Remarks:           trimmedPtr(req.Remarks),
		ProductID:         req.ProductID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func validateItemPatch(req domain.UpdateItemRequest) error {
	if req.ItemNo != nil && strings.TrimSpace(*req.ItemNo) == "" {
		return domain.ErrInvalidItemNo
	}
	if req.Category != nil && !domain.Category(strings.ToUpper(strings.TrimSpace(*req.Category))).Valid() {
		return domain.ErrInvalidCategory
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return domain.ErrInvalidDescription
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	if req.Unit != nil && strings.TrimSpace(*req.Unit) == "" {
		return domain.ErrInvalidUnit
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return domain.ErrInvalidUnitCost
	}
	if req.ProcurementMethod != nil && !domain.ProcurementMethod(strings.ToUpper(strings.TrimSpace(*req.ProcurementMethod))).Valid() {
		return domain.ErrInvalidProcurementMethod
	}
	if req.MonthlyAllocation != nil {
		if err := validateMonthly(*req.MonthlyAllocation); err != nil {
			return err
		}
	}
	return nil
}

// applyItemPatch copies supplied fields and reports whether the line total inputs changed.
func applyItemPatch(item *domain.LineItem, req domain.UpdateItemRequest) bool {
	if req.Category != nil {
		item.Category = domain.Category(strings.ToUpper(strings.TrimSpace(*req.Category)))
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Unit != nil {
		item.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.ProcurementMethod != nil {
		item.ProcurementMethod = domain.ProcurementMethod(strings.ToUpper(strings.TrimSpace(*req.ProcurementMethod)))
	}
	if req.Schedule != nil {
		item.Schedule = datatypes.NewJSONType(*req.Schedule)
	}
	if req.MonthlyAllocation != nil {
		item.MonthlyAllocation = *req.MonthlyAllocation
	}
	if req.Remarks != nil {
		item.Remarks = trimmedPtr(req.Remarks)
	}

	changed := false
	if req.Quantity != nil && *req.Quantity != item.Quantity {
		item.Quantity = *req.Quantity
		changed = true
	}
	if req.UnitCost != nil && !req.UnitCost.Round(2).Equal(item.UnitCost) {
		item.UnitCost = req.UnitCost.Round(2)
		changed = true
	}
	return changed
}

func validateSchedule(schedule domain.ItemSchedule) error {
	if schedule.StartDate != nil && schedule.EndDate != nil && schedule.EndDate.Before(*schedule.StartDate) {
		return domain.ErrInvalidSchedule
	}
	if schedule.ProcurementStart != nil && schedule.ProcurementEnd != nil && schedule.ProcurementEnd.Before(*schedule.ProcurementStart) {
		return domain.ErrInvalidSchedule
	}
	return nil
}

func validateMonthly(monthly domain.MonthlyAllocation) error {
	for _, month := range monthly.Months() {
		if month.Valid && month.Decimal.IsNegative() {
			return domain.ErrInvalidMonthlyAllocation
		}
	}
	return nil
}

func itemValues(item *domain.LineItem) map[string]any {
	if item == nil {
		return nil
	}
	return map[string]any{
		"item_no":            item.ItemNo,
		"category":           string(item.Category),
		"description":        item.Description,
		"quantity":           item.Quantity,
		"unit":               item.Unit,
		"unit_cost":          item.UnitCost.StringFixed(2),
		"total_cost":         item.TotalCost.StringFixed(2),
		"procurement_method": string(item.ProcurementMethod),
	}
}

