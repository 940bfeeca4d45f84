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

func (s *Service) ListActivities(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]domain.ProcurementActivity, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionView); err != nil {
		return nil, err
	}
	activities, err := s.repo.ListActivities(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []domain.ProcurementActivity{}
	}
	return activities, nil
}

func (s *Service) AddActivity(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req domain.CreateActivityRequest) (*domain.ProcurementActivity, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Activity)
	if name == "" {
		return nil, domain.ErrInvalidActivity
	}
	if req.StartDate == nil || req.StartDate.IsZero() {
		return nil, domain.ErrInvalidStartDate
	}
	if req.EndDate == nil || !req.EndDate.After(*req.StartDate) {
		return nil, domain.ErrInvalidEndDate
	}
	unit := strings.TrimSpace(req.ResponsibleUnit)
	if unit == "" {
		return nil, domain.ErrInvalidResponsibleUnit
	}
	status := domain.ActivityPlanned
	if strings.TrimSpace(req.Status) != "" {
		status = domain.ActivityStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			return nil, domain.ErrInvalidActivityStatus
		}
	}

	now := s.clock.Now()
	activity := &domain.ProcurementActivity{
		ID:              s.genID.Generate(),
		PlanID:          planID,
		ItemID:          nonZeroID(req.ItemID),
		Activity:        name,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		ResponsibleUnit: unit,
		Status:          status,
		Remarks:         trimmedPtr(req.Remarks),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		if err := s.checkItemReference(ctx, tx, planID, activity.ItemID); err != nil {
			return err
		}
		return s.repo.InsertActivity(ctx, tx, activity)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityActivity,
		EntityID:   activity.ID,
		PlanID:     planIDPtr(planID),
		NewValues:  activityValues(activity),
	})
	return activity, nil
}

func (s *Service) UpdateActivity(ctx context.Context, actor authorization.Actor, planID, activityID snowflake.ID, req domain.UpdateActivityRequest) (*domain.ProcurementActivity, error) {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return nil, err
	}
	if req.Activity != nil && strings.TrimSpace(*req.Activity) == "" {
		return nil, domain.ErrInvalidActivity
	}
	if req.ResponsibleUnit != nil && strings.TrimSpace(*req.ResponsibleUnit) == "" {
		return nil, domain.ErrInvalidResponsibleUnit
	}
	if req.Status != nil && !domain.ActivityStatus(strings.ToUpper(strings.TrimSpace(*req.Status))).Valid() {
		return nil, domain.ErrInvalidActivityStatus
	}

	var before map[string]any
	var updated *domain.ProcurementActivity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		activity, err := s.repo.FindActivity(ctx, tx, planID, activityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return domain.ErrActivityNotFound
		}
		before = activityValues(activity)

		if req.Activity != nil {
			activity.Activity = strings.TrimSpace(*req.Activity)
		}
		if req.StartDate != nil {
			activity.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			activity.EndDate = req.EndDate.UTC()
		}
		if !activity.EndDate.After(activity.StartDate) {
			return domain.ErrInvalidEndDate
		}
		if req.ResponsibleUnit != nil {
			activity.ResponsibleUnit = strings.TrimSpace(*req.ResponsibleUnit)
		}
		if req.Status != nil {
			activity.Status = domain.ActivityStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		}
		if req.Remarks != nil {
			activity.Remarks = trimmedPtr(req.Remarks)
		}
		if req.ItemID != nil {
			if *req.ItemID == 0 {
				activity.ItemID = nil
			} else {
				if err := s.checkItemReference(ctx, tx, planID, req.ItemID); err != nil {
					return err
				}
				activity.ItemID = req.ItemID
			}
		}
		activity.UpdatedAt = s.clock.Now()

		if err := s.repo.SaveActivity(ctx, tx, activity); err != nil {
			return err
		}
		updated = activity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionUpdate,
		EntityType: auditdomain.EntityActivity,
		EntityID:   activityID,
		PlanID:     planIDPtr(planID),
		OldValues:  before,
		NewValues:  activityValues(updated),
	})
	return updated, nil
}

func (s *Service) DeleteActivity(ctx context.Context, actor authorization.Actor, planID, activityID snowflake.ID) error {
	if _, err := s.Access(ctx, actor, planID, authorization.ActionEdit); err != nil {
		return err
	}

	var removed *domain.ProcurementActivity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockForEdit(ctx, tx, actor, planID); err != nil {
			return err
		}
		activity, err := s.repo.FindActivity(ctx, tx, planID, activityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return domain.ErrActivityNotFound
		}
		removed = activity
		return s.repo.DeleteActivity(ctx, tx, planID, activityID)
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityActivity,
		EntityID:   activityID,
		PlanID:     planIDPtr(planID),
		OldValues:  activityValues(removed),
	})
	return nil
}

// checkItemReference requires an optional item reference to point at an item of the same plan.
func (s *Service) checkItemReference(ctx context.Context, tx *gorm.DB, planID snowflake.ID, itemID *snowflake.ID) error {
	if itemID == nil || *itemID == 0 {
		return nil
	}
	item, err := s.repo.FindItem(ctx, tx, planID, *itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrInvalidItemReference
	}
	return nil
}

func activityValues(activity *domain.ProcurementActivity) map[string]any {
	if activity == nil {
		return nil
	}
	values := map[string]any{
		"activity":         activity.Activity,
		"start_date":       activity.StartDate.Format("2006-01-02"),
		"end_date":         activity.EndDate.Format("2006-01-02"),
		"responsible_unit": activity.ResponsibleUnit,
		"status":           string(activity.Status),
	}
	if activity.ItemID != nil {
		values["ppmp_item_id"] = activity.ItemID.String()
	}
	return values
}

func nonZeroID(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
