package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	deptEngineering snowflake.ID = 10
	deptHealth      snowflake.ID = 20
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewStaticEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
}

func actorFor(id snowflake.ID, role Role, dept snowflake.ID) Actor {
	a := Actor{UserID: id, Role: role}
	if dept != 0 {
		a.DepartmentID = &dept
	}
	return a
}

func plan(status lifecycle.Status, dept, preparer snowflake.ID) *PlanContext {
	return &PlanContext{Status: status, DepartmentID: dept, PreparedByID: preparer}
}

func TestPreparerOwnDepartmentDraft(t *testing.T) {
	svc := newTestService(t)
	preparer := actorFor(1, RolePreparer, deptEngineering)

	got := svc.Permitted(preparer, plan(lifecycle.StatusDraft, deptEngineering, 1))
	for _, action := range []Action{ActionView, ActionEdit, ActionDelete, ActionSubmit} {
		assert.True(t, got.Has(action), action)
	}
	assert.False(t, got.Has(ActionApprove))
	assert.False(t, got.Has(ActionReject))
	assert.False(t, got.Has(ActionViewPending))
}

func TestPreparerCannotSubmitColleaguesPlan(t *testing.T) {
	svc := newTestService(t)
	preparer := actorFor(1, RolePreparer, deptEngineering)

	got := svc.Permitted(preparer, plan(lifecycle.StatusDraft, deptEngineering, 2))
	assert.True(t, got.Has(ActionEdit))
	assert.False(t, got.Has(ActionSubmit))
}

func TestPreparerLosesEditAfterSubmit(t *testing.T) {
	svc := newTestService(t)
	preparer := actorFor(1, RolePreparer, deptEngineering)

	got := svc.Permitted(preparer, plan(lifecycle.StatusSubmitted, deptEngineering, 1))
	assert.True(t, got.Has(ActionView))
	assert.False(t, got.Has(ActionEdit))
	assert.False(t, got.Has(ActionDelete))
	assert.False(t, got.Has(ActionSubmit))
}

func TestPreparerOtherDepartmentGetsNothing(t *testing.T) {
	svc := newTestService(t)
	preparer := actorFor(1, RolePreparer, deptHealth)

	got := svc.Permitted(preparer, plan(lifecycle.StatusDraft, deptEngineering, 2))
	assert.Empty(t, got)

	err := svc.Authorize(context.Background(), preparer, plan(lifecycle.StatusDraft, deptEngineering, 2), ActionView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPreparerWithoutDepartment(t *testing.T) {
	svc := newTestService(t)
	preparer := actorFor(1, RolePreparer, 0)
	assert.Empty(t, svc.Permitted(preparer, plan(lifecycle.StatusDraft, deptEngineering, 1)))
}

func TestReviewersApproveOnlyWhileSubmitted(t *testing.T) {
	svc := newTestService(t)
	for _, role := range []Role{RoleApprover, RoleFinanceHead, RoleMayor} {
		reviewer := actorFor(5, role, 0)

		submitted := svc.Permitted(reviewer, plan(lifecycle.StatusSubmitted, deptEngineering, 1))
		assert.True(t, submitted.Has(ActionApprove), role)
		assert.True(t, submitted.Has(ActionReject), role)
		assert.True(t, submitted.Has(ActionView), role)
		assert.False(t, submitted.Has(ActionEdit), role)
		assert.False(t, submitted.Has(ActionSubmit), role)

		for _, status := range []lifecycle.Status{lifecycle.StatusDraft, lifecycle.StatusApproved, lifecycle.StatusRejected} {
			got := svc.Permitted(reviewer, plan(status, deptEngineering, 1))
			assert.False(t, got.Has(ActionApprove), "%s %s", role, status)
			assert.False(t, got.Has(ActionReject), "%s %s", role, status)
		}

		assert.True(t, svc.Permitted(reviewer, nil).Has(ActionViewPending), role)
	}
}

func TestAdminHasEveryAction(t *testing.T) {
	svc := newTestService(t)
	admin := actorFor(9, RoleAdmin, 0)
	for _, status := range lifecycle.Statuses {
		got := svc.Permitted(admin, plan(status, deptHealth, 1))
		for _, action := range AllActions {
			assert.True(t, got.Has(action), "%s %s", status, action)
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	svc := newTestService(t)
	unknown := actorFor(3, ParseRole("SUPERVISOR"), deptEngineering)
	assert.Equal(t, RoleUnknown, unknown.Role)
	assert.Empty(t, svc.Permitted(unknown, nil))
	assert.Empty(t, svc.Permitted(unknown, plan(lifecycle.StatusDraft, deptEngineering, 3)))
}

func TestListingContext(t *testing.T) {
	svc := newTestService(t)

	preparer := svc.Permitted(actorFor(1, RolePreparer, deptEngineering), nil)
	assert.True(t, preparer.Has(ActionView))
	assert.True(t, preparer.Has(ActionCreate))
	assert.True(t, preparer.Has(ActionViewReports))
	assert.False(t, preparer.Has(ActionViewPending))

	mayor := svc.Permitted(actorFor(2, RoleMayor, 0), nil)
	assert.False(t, mayor.Has(ActionCreate))
}

func TestAuthorizeRejectsAnonymousActor(t *testing.T) {
	svc := newTestService(t)
	err := svc.Authorize(context.Background(), Actor{Role: RoleAdmin}, nil, ActionView)
	assert.ErrorIs(t, err, ErrInvalidActor)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleFinanceHead, ParseRole(" finance_head "))
	assert.Equal(t, RoleUnknown, ParseRole(""))
}
