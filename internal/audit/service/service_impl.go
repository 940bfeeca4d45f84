package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	auditcontext "github.com/smallbiznis/ppmp/internal/auditcontext"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) error {
	action := auditdomain.Action(strings.TrimSpace(string(entry.Action)))
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	entityType := strings.TrimSpace(entry.EntityType)
	if entityType == "" || entry.EntityID == 0 {
		return auditdomain.ErrInvalidEntity
	}
	if entry.UserID == 0 {
		return auditdomain.ErrInvalidUser
	}

	row := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		PlanID:     entry.PlanID,
		Action:     string(action),
		EntityType: entityType,
		EntityID:   entry.EntityID,
		UserID:     entry.UserID,
		OldValues:  toJSONMap(entry.OldValues),
		NewValues:  toJSONMap(entry.NewValues),
		CreatedAt:  s.clock.Now(),
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		row.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		row.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, s.db, &row); err != nil {
		metrics.PPMP().RecordAuditFailure(string(action))
		s.log.Warn("failed to write audit log",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entry.EntityID.String()),
			zap.String("request_id", auditcontext.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) ListForPlan(ctx context.Context, planID snowflake.ID, page pagination.Pagination) (auditdomain.ListAuditLogResponse, error) {
	if planID == 0 {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidEntity
	}
	page = page.Normalize(defaultPageSize, maxPageSize)
	filter := auditdomain.ListFilter{
		PlanID: &planID,
		Limit:  page.PageSize,
		Offset: page.Offset(),
	}

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return auditdomain.ListAuditLogResponse{
		PageInfo:  pagination.BuildPageInfo(page, total),
		AuditLogs: logs,
	}, nil
}

// toJSONMap never returns nil so the column always holds a JSON object.
func toJSONMap(values map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range values {
		if strings.TrimSpace(key) == "" {
			continue
		}
		out[key] = value
	}
	return out
}
