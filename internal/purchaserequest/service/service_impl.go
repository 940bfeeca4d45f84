package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/smallbiznis/ppmp/internal/observability/logger"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"github.com/smallbiznis/ppmp/pkg/db"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
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
	auditSvc auditdomain.Service
	clock    clock.Clock
	cfg      *config.PPMPConfigHolder
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("purchaserequest.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		clock:    c,
		cfg:      p.Config,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, actor authorization.Actor, req domain.CreateRequest) (*domain.Detail, error) {
	if actor.UserID == 0 {
		return nil, authorization.ErrInvalidActor
	}
	prNo := strings.TrimSpace(req.PRNo)
	if prNo == "" {
		return nil, domain.ErrInvalidPRNo
	}
	departmentID, err := requestDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	lines, err := normalizeLines(req.Products)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pr := &domain.PurchaseRequest{
		ID:           s.genID.Generate(),
		PRNo:         prNo,
		Purpose:      trimmedOrNil(req.Purpose),
		Remarks:      trimmedOrNil(req.Remarks),
		Status:       domain.StatusDraft,
		DepartmentID: departmentID,
		CreatedByID:  actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.PRNoExists(ctx, tx, prNo)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicatePRNo
		}
		if err := s.repo.Insert(ctx, tx, pr); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicatePRNo
			}
			return err
		}
		for _, line := range lines {
			if _, err := s.insertLine(ctx, tx, pr.ID, line, now); err != nil {
				return err
			}
		}
		aligned, err := s.refreshAlignment(ctx, tx, pr)
		if err != nil {
			return err
		}
		pr.PPMPAligned = aligned
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityPurchase,
		EntityID:   pr.ID,
		NewValues: map[string]any{
			"pr_no":         pr.PRNo,
			"department_id": pr.DepartmentID.String(),
			"products":      len(lines),
			"ppmp_aligned":  pr.PPMPAligned,
		},
	})
	return s.detail(ctx, pr.ID)
}

func (s *Service) List(ctx context.Context, actor authorization.Actor, req domain.ListRequest) (domain.ListResponse, error) {
	if actor.UserID == 0 {
		return domain.ListResponse{}, authorization.ErrInvalidActor
	}
	limits := s.listConfig().List
	page := req.Pagination.Normalize(limits.DefaultPageSize, limits.MaxPageSize)

	filter := domain.Filter{
		DepartmentID: req.DepartmentID,
		Aligned:      req.Aligned,
		Limit:        page.PageSize,
		Offset:       page.Offset(),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" && !strings.EqualFold(raw, "all") {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Status = string(status)
	}
	if !actor.IsAdmin() && !actor.Role.IsReviewer() {
		filter.Visible = &domain.Visibility{
			DepartmentID: actor.DepartmentID,
			CreatedByID:  actor.UserID,
		}
	}

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	rows, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	if rows == nil {
		rows = []domain.Detail{}
	}
	return domain.ListResponse{
		PageInfo:         pagination.BuildPageInfo(page, total),
		PurchaseRequests: rows,
	}, nil
}

func (s *Service) Get(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*domain.Detail, error) {
	if _, err := s.access(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor authorization.Actor, id snowflake.ID, req domain.UpdateRequest) (*domain.Detail, error) {
	pr, err := s.access(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var target domain.Status
	if req.Status != nil {
		target, err = domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if target == pr.Status {
			req.Status = nil
		}
	}
	editsFields := req.Purpose != nil || req.Remarks != nil
	if (editsFields || req.Status == nil) && !domain.CanEdit(actor, pr) {
		return nil, domain.ErrNotEditable
	}
	if req.Status != nil {
		if err := domain.CheckTransition(actor, pr, target); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{}
	oldValues := map[string]any{}
	newValues := map[string]any{}
	if req.Purpose != nil {
		fields["purpose"] = trimmedOrNil(req.Purpose)
		oldValues["purpose"] = pr.Purpose
		newValues["purpose"] = fields["purpose"]
	}
	if req.Remarks != nil {
		fields["remarks"] = trimmedOrNil(req.Remarks)
		oldValues["remarks"] = pr.Remarks
		newValues["remarks"] = fields["remarks"]
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if req.Status != nil {
			// Re-check against the stored status in case it moved since access.
			if err := domain.CheckTransition(actor, current, target); err != nil {
				return err
			}
			if target == domain.StatusSubmitted {
				lines, err := s.repo.ListLines(ctx, tx, id)
				if err != nil {
					return err
				}
				if len(lines) == 0 {
					return domain.ErrNoLines
				}
			}
			fields["status"] = target
			oldValues["status"] = current.Status
			newValues["status"] = target
		}
		aligned, err := s.alignment(ctx, tx, current.DepartmentID, id)
		if err != nil {
			return err
		}
		fields["ppmp_aligned"] = aligned
		fields["updated_at"] = s.clock.Now()
		return s.repo.UpdateFields(ctx, tx, id, fields)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditAction(req.Status, target),
		EntityType: auditdomain.EntityPurchase,
		EntityID:   id,
		OldValues:  oldValues,
		NewValues:  newValues,
	})
	return s.detail(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error {
	pr, err := s.access(ctx, actor, id)
	if err != nil {
		return err
	}
	if !domain.CanEdit(actor, pr) {
		return domain.ErrNotEditable
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityPurchase,
		EntityID:   id,
		OldValues: map[string]any{
			"pr_no":  pr.PRNo,
			"status": pr.Status,
		},
	})
	return nil
}

func (s *Service) ListProducts(ctx context.Context, actor authorization.Actor, id snowflake.ID) ([]domain.LineView, error) {
	pr, err := s.access(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.LineView{}
	}
	domain.Align(pr.DepartmentID, lines)
	return lines, nil
}

func (s *Service) AddProduct(ctx context.Context, actor authorization.Actor, id snowflake.ID, req domain.LineRequest) (*domain.LineView, error) {
	pr, err := s.access(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEdit(actor, pr) {
		return nil, domain.ErrNotEditable
	}
	normalized, err := normalizeLine(req)
	if err != nil {
		return nil, err
	}

	var line *domain.Line
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err = s.insertLine(ctx, tx, id, normalized, s.clock.Now())
		if err != nil {
			return err
		}
		_, err = s.refreshAlignment(ctx, tx, pr)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionCreate,
		EntityType: auditdomain.EntityPurchaseLine,
		EntityID:   line.ID,
		NewValues: map[string]any{
			"purchase_request_id": id.String(),
			"ppmp_item_id":        line.ItemID.String(),
			"quantity":            line.Quantity.String(),
			"unit":                line.Unit,
		},
	})

	lines, err := s.ListProducts(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].ID == line.ID {
			return &lines[i], nil
		}
	}
	return &domain.LineView{Line: *line}, nil
}

func (s *Service) RemoveProduct(ctx context.Context, actor authorization.Actor, id, lineID snowflake.ID) error {
	pr, err := s.access(ctx, actor, id)
	if err != nil {
		return err
	}
	if !domain.CanEdit(actor, pr) {
		return domain.ErrNotEditable
	}

	var removed *domain.Line
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err := s.repo.FindLine(ctx, tx, id, lineID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrLineNotFound
		}
		removed = line
		if err := s.repo.DeleteLine(ctx, tx, lineID); err != nil {
			return err
		}
		_, err = s.refreshAlignment(ctx, tx, pr)
		return err
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, auditdomain.Entry{
		Action:     auditdomain.ActionDelete,
		EntityType: auditdomain.EntityPurchaseLine,
		EntityID:   lineID,
		OldValues: map[string]any{
			"purchase_request_id": id.String(),
			"ppmp_item_id":        removed.ItemID.String(),
			"quantity":            removed.Quantity.String(),
		},
	})
	return nil
}

// access returns the request when it exists and the actor may view it.
func (s *Service) access(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*domain.PurchaseRequest, error) {
	if actor.UserID == 0 {
		return nil, authorization.ErrInvalidActor
	}
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	pr, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.CanView(actor, pr) {
		return nil, authorization.ErrForbidden
	}
	return pr, nil
}

func (s *Service) detail(ctx context.Context, id snowflake.ID) (*domain.Detail, error) {
	detail, err := s.repo.FindDetail(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := s.repo.ListLines(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.LineView{}
	}
	domain.Align(detail.DepartmentID, lines)
	detail.Products = lines
	return detail, nil
}

func (s *Service) insertLine(ctx context.Context, tx *gorm.DB, requestID snowflake.ID, req domain.LineRequest, now time.Time) (*domain.Line, error) {
	ref, err := s.repo.FindItemRef(ctx, tx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ppmpdomain.ErrItemNotFound
	}
	unit := req.Unit
	if unit == "" {
		unit = ref.Unit
	}
	line := &domain.Line{
		ID:        s.genID.Generate(),
		RequestID: requestID,
		PlanID:    ref.PlanID,
		ItemID:    ref.ItemID,
		Unit:      unit,
		Quantity:  req.Quantity,
		CreatedAt: now,
	}
	if err := s.repo.InsertLine(ctx, tx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *Service) alignment(ctx context.Context, tx *gorm.DB, departmentID, requestID snowflake.ID) (bool, error) {
	lines, err := s.repo.ListLines(ctx, tx, requestID)
	if err != nil {
		return false, err
	}
	return domain.Align(departmentID, lines), nil
}

// refreshAlignment stores the derived ppmp_aligned flag of the request.
func (s *Service) refreshAlignment(ctx context.Context, tx *gorm.DB, pr *domain.PurchaseRequest) (bool, error) {
	aligned, err := s.alignment(ctx, tx, pr.DepartmentID, pr.ID)
	if err != nil {
		return false, err
	}
	err = s.repo.UpdateFields(ctx, tx, pr.ID, map[string]any{
		"ppmp_aligned": aligned,
		"updated_at":   s.clock.Now(),
	})
	return aligned, err
}

func (s *Service) listConfig() config.PPMPConfig {
	if s.cfg == nil {
		return config.DefaultPPMPConfig()
	}
	return s.cfg.Get()
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

// requestDepartment resolves the requesting department. Only admins may
// file on behalf of another department.
func requestDepartment(actor authorization.Actor, requested *snowflake.ID) (snowflake.ID, error) {
	if requested != nil && *requested != 0 {
		if !actor.IsAdmin() && !actor.InDepartment(*requested) {
			return 0, authorization.ErrForbidden
		}
		return *requested, nil
	}
	if actor.DepartmentID == nil || *actor.DepartmentID == 0 {
		return 0, domain.ErrInvalidDepartment
	}
	return *actor.DepartmentID, nil
}

func normalizeLines(reqs []domain.LineRequest) ([]domain.LineRequest, error) {
	out := make([]domain.LineRequest, 0, len(reqs))
	for _, req := range reqs {
		normalized, err := normalizeLine(req)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

func normalizeLine(req domain.LineRequest) (domain.LineRequest, error) {
	if req.ItemID == 0 {
		return req, domain.ErrInvalidItem
	}
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return req, domain.ErrInvalidQuantity
	}
	req.Quantity = req.Quantity.Round(2)
	req.Unit = strings.TrimSpace(req.Unit)
	return req, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func auditAction(status *string, target domain.Status) auditdomain.Action {
	if status == nil {
		return auditdomain.ActionUpdate
	}
	switch target {
	case domain.StatusSubmitted:
		return auditdomain.ActionSubmit
	case domain.StatusApproved:
		return auditdomain.ActionApprove
	case domain.StatusRejected:
		return auditdomain.ActionReject
	case domain.StatusCancelled:
		return auditdomain.ActionCancel
	default:
		return auditdomain.ActionUpdate
	}
}
