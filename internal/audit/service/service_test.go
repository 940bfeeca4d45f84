package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/audit/repository"
	auditcontext "github.com/smallbiznis/ppmp/internal/auditcontext"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/testutil"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newAuditService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db := testutil.NewDB(t, &auditdomain.AuditLog{})
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: testutil.NewNode(t),
		Repo:  repository.Provide(),
		Clock: fake,
	})
	return svc, fake
}

func TestRecordCapturesRequestMetadata(t *testing.T) {
	svc, _ := newAuditService(t)
	planID := snowflake.ID(100)

	ctx := auditcontext.WithIPAddress(context.Background(), "10.0.0.5")
	ctx = auditcontext.WithUserAgent(ctx, "curl/8.0")

	err := svc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionApprove,
		EntityType: auditdomain.EntityPlan,
		EntityID:   planID,
		PlanID:     &planID,
		UserID:     7,
		OldValues:  map[string]any{"status": "SUBMITTED"},
		NewValues:  map[string]any{"status": "APPROVED"},
	})
	require.NoError(t, err)

	resp, err := svc.ListForPlan(context.Background(), planID, pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "APPROVE", entry.Action)
	assert.Equal(t, "SUBMITTED", entry.OldValues["status"])
	assert.Equal(t, "APPROVED", entry.NewValues["status"])
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.5", *entry.IPAddress)
	require.NotNil(t, entry.UserAgent)
	assert.Equal(t, "curl/8.0", *entry.UserAgent)
}

func TestListForPlanNewestFirst(t *testing.T) {
	svc, fake := newAuditService(t)
	planID := snowflake.ID(200)
	otherPlan := snowflake.ID(300)

	for _, action := range []auditdomain.Action{auditdomain.ActionCreate, auditdomain.ActionUpdate, auditdomain.ActionSubmit} {
		require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{
			Action:     action,
			EntityType: auditdomain.EntityPlan,
			EntityID:   planID,
			PlanID:     &planID,
			UserID:     1,
		}))
		fake.Advance(time.Minute)
	}
	require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityPlan,
		EntityID:   otherPlan,
		PlanID:     &otherPlan,
		UserID:     1,
	}))

	resp, err := svc.ListForPlan(context.Background(), planID, pagination.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 2)
	assert.Equal(t, "SUBMIT", resp.AuditLogs[0].Action)
	assert.Equal(t, "UPDATE", resp.AuditLogs[1].Action)
	assert.EqualValues(t, 3, resp.TotalCount)
	assert.True(t, resp.HasMore)
}

func TestRecordValidatesEntry(t *testing.T) {
	svc, _ := newAuditService(t)

	err := svc.Record(context.Background(), auditdomain.Entry{EntityType: auditdomain.EntityPlan, EntityID: 1, UserID: 1})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)

	err = svc.Record(context.Background(), auditdomain.Entry{Action: auditdomain.ActionCreate, UserID: 1})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidEntity)

	err = svc.Record(context.Background(), auditdomain.Entry{Action: auditdomain.ActionCreate, EntityType: auditdomain.EntityPlan, EntityID: 1})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidUser)
}
