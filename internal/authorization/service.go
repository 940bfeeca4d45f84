package authorization

import (
	"context"
	_ "embed"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidActor = errors.New("invalid_actor")
)

// PlanContext is the slice of plan state the matrix needs. A nil context
// means no plan is involved yet (listing, reports, creation).
type PlanContext struct {
	Status       lifecycle.Status
	DepartmentID snowflake.ID
	PreparedByID snowflake.ID
}

type Service interface {
	Permitted(actor Actor, plan *PlanContext) ActionSet
	Authorize(ctx context.Context, actor Actor, plan *PlanContext, action Action) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

// NewEnforcer persists the role capability policy through the gorm adapter.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewStaticEnforcer keeps the seeded policy in memory only.
func NewStaticEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, plan *PlanContext, action Action) error {
	if actor.UserID == 0 {
		return ErrInvalidActor
	}
	if s.Permitted(actor, plan).Has(action) {
		return nil
	}
	fields := []zap.Field{
		zap.String("actor_id", actor.UserID.String()),
		zap.String("role", string(actor.Role)),
		zap.String("action", string(action)),
	}
	if plan != nil {
		fields = append(fields,
			zap.String("status", string(plan.Status)),
			zap.String("department_id", plan.DepartmentID.String()),
		)
	}
	s.log.Info("authorization denied", fields...)
	return ErrForbidden
}

// Permitted returns every action the actor may take on the plan. It has no
// side effects and fails closed on unknown roles.
func (s *ServiceImpl) Permitted(actor Actor, plan *PlanContext) ActionSet {
	allowed := ActionSet{}
	if actor.Role == RoleUnknown || actor.Role == "" {
		return allowed
	}
	for _, action := range AllActions {
		if !s.capable(actor.Role, action) {
			continue
		}
		if contextAllows(actor, plan, action) {
			allowed[action] = struct{}{}
		}
	}
	return allowed
}

func (s *ServiceImpl) capable(role Role, action Action) bool {
	if s.enforcer == nil {
		return false
	}
	ok, err := s.enforcer.Enforce(role.subject(), action.object(), string(action))
	if err != nil {
		s.log.Warn("capability check failed", zap.String("role", string(role)), zap.Error(err))
		return false
	}
	return ok
}

func contextAllows(actor Actor, plan *PlanContext, action Action) bool {
	if plan == nil {
		switch action {
		case ActionView, ActionCreate, ActionViewPending, ActionViewReports:
			return true
		default:
			return false
		}
	}

	if actor.IsAdmin() {
		return true
	}

	switch {
	case actor.Role == RolePreparer:
		if !actor.InDepartment(plan.DepartmentID) {
			return false
		}
		switch action {
		case ActionEdit, ActionDelete:
			return plan.Status == lifecycle.StatusDraft
		case ActionSubmit:
			return plan.Status == lifecycle.StatusDraft && plan.PreparedByID == actor.UserID
		default:
			return true
		}
	case actor.Role.IsReviewer():
		switch action {
		case ActionApprove, ActionReject:
			return plan.Status == lifecycle.StatusSubmitted
		default:
			return true
		}
	}
	return false
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	reviewer := []Action{
		ActionView,
		ActionApprove,
		ActionReject,
		ActionViewPending,
		ActionViewReports,
		ActionLinkDisbursement,
		ActionUnlinkDisbursement,
	}
	grants := map[Role][]Action{
		RoleAdmin: AllActions,
		RolePreparer: {
			ActionView,
			ActionCreate,
			ActionEdit,
			ActionDelete,
			ActionSubmit,
			ActionLinkDisbursement,
			ActionUnlinkDisbursement,
			ActionViewReports,
		},
		RoleApprover:    reviewer,
		RoleFinanceHead: reviewer,
		RoleMayor:       reviewer,
	}

	for role, actions := range grants {
		for _, action := range actions {
			if _, err := enforcer.AddPolicy(role.subject(), action.object(), string(action)); err != nil {
				return err
			}
		}
	}
	return nil
}
