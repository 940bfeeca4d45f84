package service

import (
	"context"
	"errors"
	"testing"

	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/smallbiznis/ppmp/internal/disbursement/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingAudit struct {
	auditdomain.Service
}

func (failingAudit) Record(context.Context, auditdomain.Entry) error {
	return errors.New("audit store unavailable")
}

func TestLinkSurvivesAuditFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, config.DefaultPPMPConfig(), func(p *Params) {
		p.AuditSvc = failingAudit{}
		p.Log = zap.New(core)
	})
	ctx := context.Background()
	item := f.seedPlan(t, 100, lifecycle.StatusApproved)
	f.seedVoucher(t, "DV-2026-0009", "Acme Trading", "Toner cartridges")

	link, err := f.svc.Link(ctx, f.finance, 100, domain.LinkRequest{DisbursementID: "DV-2026-0009", ItemID: item.ID})
	require.NoError(t, err)

	links, err := f.svc.ListLinks(ctx, f.finance, 100)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, link.ID, links[0].ID)

	require.NoError(t, f.svc.Unlink(ctx, f.finance, 100, link.ID))
	links, err = f.svc.ListLinks(ctx, f.finance, 100)
	require.NoError(t, err)
	assert.Empty(t, links)

	dropped := logs.FilterMessage("audit entry dropped").All()
	require.Len(t, dropped, 2)
	assert.Equal(t, "audit store unavailable", dropped[0].ContextMap()["error"])
}
