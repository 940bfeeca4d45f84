package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/smallbiznis/ppmp/internal/disbursement/domain"
	"github.com/smallbiznis/ppmp/internal/observability/logger"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	"github.com/smallbiznis/ppmp/internal/ppmp/aggregate"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	"github.com/smallbiznis/ppmp/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outcomeLinked    = "linked"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeUnlinked  = "unlinked"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	PlanRepo ppmpdomain.Repository
	Engine   *aggregate.Engine
	Authz    authorization.Service
	AuditSvc auditdomain.Service      `optional:"true"`
	Clock    clock.Clock              `optional:"true"`
	Config   *config.PPMPConfigHolder `optional:"true"`
	Metrics  *metrics.Metrics         `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	planRepo ppmpdomain.Repository
	engine   *aggregate.Engine
	authz    authorization.Service
	auditSvc auditdomain.Service
	clock    clock.Clock
	cfg      *config.PPMPConfigHolder
	metrics  *metrics.Metrics
	links    *metrics.PPMPMetrics
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("disbursement.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		planRepo: p.PlanRepo,
		engine:   p.Engine,
		authz:    p.Authz,
		auditSvc: p.AuditSvc,
		clock:    c,
		cfg:      p.Config,
		metrics:  p.Metrics,
		links:    metrics.PPMP(),
	}
}

func (s *Service) Search(ctx context.Context, actor authorization.Actor, req domain.SearchRequest) ([]domain.Voucher, error) {
	if actor.UserID == 0 {
		return nil, authorization.ErrInvalidActor
	}
	if req.Limit < 0 {
		return nil, domain.ErrInvalidSearchLimit
	}
	limits := s.cfg.Get().Disbursements
	limit := req.Limit
	if limit == 0 {
		limit = limits.SearchDefaultLimit
	}
	if limit > limits.SearchMaxLimit {
		limit = limits.SearchMaxLimit
	}

	vouchers, err := s.repo.SearchVouchers(ctx, s.db, req.Query, limit)
	if err != nil {
		return nil, err
	}
	if vouchers == nil {
		vouchers = []domain.Voucher{}
	}
	return vouchers, nil
}

func (s *Service) ListLinks(ctx context.Context, actor authorization.Actor, planID snowflake.ID) ([]domain.LinkView, error) {
	if _, err := s.loadPlan(ctx, actor, planID); err != nil {
		return nil, err
	}
	links, err := s.repo.ListLinks(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []domain.LinkView{}
	}
	return links, nil
}

func (s *Service) Link(ctx context.Context, actor authorization.Actor, planID snowflake.ID, req domain.LinkRequest) (*domain.LinkView, error) {
	plan, err := s.loadPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckLinkable(plan.Status); err != nil {
		s.links.RecordDisbursementLink(outcomeRejected)
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionLinkDisbursement); err != nil {
		return nil, err
	}

	voucherID := strings.TrimSpace(req.DisbursementID)
	if voucherID == "" {
		return nil, domain.ErrInvalidVoucherID
	}
	if req.ItemID == 0 {
		return nil, domain.ErrInvalidItemID
	}

	link := &domain.Link{
		ID:             s.genID.Generate(),
		PlanID:         planID,
		ItemID:         req.ItemID,
		DisbursementID: voucherID,
		CreatedByID:    actor.UserID,
		CreatedAt:      s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.engine.Lock(ctx, tx, planID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckLinkable(locked.Status); err != nil {
			return err
		}
		voucher, err := s.repo.FindVoucher(ctx, tx, voucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return domain.ErrVoucherNotFound
		}
		item, err := s.planRepo.FindItem(ctx, tx, planID, req.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ppmpdomain.ErrItemNotFound
		}
		exists, err := s.repo.LinkExists(ctx, tx, planID, req.ItemID, voucherID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateLink
		}
		if err := s.repo.InsertLink(ctx, tx, link); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateLink
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateLink) {
			s.links.RecordDisbursementLink(outcomeDuplicate)
		}
		return nil, err
	}
	s.links.RecordDisbursementLink(outcomeLinked)

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionLinkDisbursement,
		EntityType: auditdomain.EntityDisbursement,
		EntityID:   link.ID,
		PlanID:     &planID,
		NewValues: map[string]any{
			"linked_disbursement_id": voucherID,
			"linked_ppmp_item_id":    req.ItemID.String(),
		},
	})

	views, err := s.repo.ListLinks(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == link.ID {
			return &views[i], nil
		}
	}
	return &domain.LinkView{Link: *link}, nil
}

func (s *Service) Unlink(ctx context.Context, actor authorization.Actor, planID, linkID snowflake.ID) error {
	plan, err := s.loadPlan(ctx, actor, planID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionUnlinkDisbursement); err != nil {
		return err
	}

	var removed *domain.Link
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.engine.Lock(ctx, tx, planID); err != nil {
			return err
		}
		link, err := s.repo.FindLink(ctx, tx, planID, linkID)
		if err != nil {
			return err
		}
		if link == nil {
			return domain.ErrLinkNotFound
		}
		removed = link
		return s.repo.DeleteLink(ctx, tx, linkID)
	})
	if err != nil {
		return err
	}
	s.links.RecordDisbursementLink(outcomeUnlinked)

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionUnlinkDisbursement,
		EntityType: auditdomain.EntityDisbursement,
		EntityID:   linkID,
		PlanID:     &planID,
		OldValues: map[string]any{
			"unlinked_disbursement_id": removed.DisbursementID,
			"unlinked_ppmp_item_id":    removed.ItemID.String(),
		},
	})
	return nil
}

// loadPlan returns the plan when it exists and the actor may view it.
func (s *Service) loadPlan(ctx context.Context, actor authorization.Actor, planID snowflake.ID) (*ppmpdomain.Plan, error) {
	if planID == 0 {
		return nil, ppmpdomain.ErrNotFound
	}
	plan, err := s.planRepo.FindPlanByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ppmpdomain.ErrNotFound
	}
	if err := s.authz.Authorize(ctx, actor, plan.PlanContext(), authorization.ActionView); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) emitAudit(ctx context.Context, actor authorization.Actor, entry auditdomain.Entry) {
	entry.UserID = actor.UserID
	s.metrics.RecordMutation(ctx, entry.EntityType, string(entry.Action))
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		logger.WithContext(ctx, s.log).Warn("audit entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("entity_id", entry.EntityID.String()),
			zap.Error(err),
		)
	}
}
