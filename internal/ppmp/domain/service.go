package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/authorization"
)

type Service interface {
	Create(ctx context.Context, actor authorization.Actor, req CreatePlanRequest) (*Plan, error)
	List(ctx context.Context, actor authorization.Actor, req ListPlanRequest) (ListPlanResponse, error)
	Get(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*PlanDetail, error)
	Update(ctx context.Context, actor authorization.Actor, id snowflake.ID, req UpdatePlanRequest) (*Plan, error)
	Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error

	Submit(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*Plan, error)
	Approve(ctx context.Context, actor authorization.Actor, id snowflake.ID, req ApproveRequest) (*Plan, error)
	Reject(ctx context.Context, actor authorization.Actor, id snowflake.ID, req RejectRequest) (*Plan, error)

	ListItems(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]LineItem, error)
	AddItem(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req CreateItemRequest) (*LineItem, error)
	UpdateItem(ctx context.Context, actor authorization.Actor, planID, itemID snowflake.ID, req UpdateItemRequest) (*LineItem, error)
	DeleteItem(ctx context.Context, actor authorization.Actor, planID, itemID snowflake.ID) error

	ListAllocations(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]BudgetAllocation, error)
	AddAllocation(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req CreateAllocationRequest) (*BudgetAllocation, error)
	UpdateAllocation(ctx context.Context, actor authorization.Actor, planID, allocationID snowflake.ID, req UpdateAllocationRequest) (*BudgetAllocation, error)
	DeleteAllocation(ctx context.Context, actor authorization.Actor, planID, allocationID snowflake.ID) error

	ListActivities(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]ProcurementActivity, error)
	AddActivity(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req CreateActivityRequest) (*ProcurementActivity, error)
	UpdateActivity(ctx context.Context, actor authorization.Actor, planID, activityID snowflake.ID, req UpdateActivityRequest) (*ProcurementActivity, error)
	DeleteActivity(ctx context.Context, actor authorization.Actor, planID, activityID snowflake.ID) error

	// Access loads a plan and checks that the actor may perform action on it.
	Access(ctx context.Context, actor authorization.Actor, planID snowflake.ID, action authorization.Action) (*Plan, error)
	// Permissions returns the actions the actor may take on the plan.
	Permissions(actor authorization.Actor, plan *Plan) authorization.ActionSet
}

// PlanContext projects the fields the permission matrix reads.
func (p *Plan) PlanContext() *authorization.PlanContext {
	if p == nil {
		return nil
	}
	return &authorization.PlanContext{
		Status:       p.Status,
		DepartmentID: p.DepartmentID,
		PreparedByID: p.PreparedByID,
	}
}
