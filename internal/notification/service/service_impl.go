package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/notification/domain"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

func (s *Service) Notify(ctx context.Context, notice domain.Notice) error {
	if notice.UserID == 0 || strings.TrimSpace(notice.Type) == "" || strings.TrimSpace(notice.Title) == "" {
		return domain.ErrInvalidNotice
	}
	n := &domain.Notification{
		ID:         s.genID.Generate(),
		UserID:     notice.UserID,
		Type:       notice.Type,
		Title:      notice.Title,
		Message:    notice.Message,
		EntityType: notice.EntityType,
		EntityID:   notice.EntityID,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, n); err != nil {
		s.log.Warn("failed to write notification",
			zap.String("type", notice.Type),
			zap.String("user_id", notice.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, req domain.ListRequest) (domain.ListResponse, error) {
	page := req.Pagination.Normalize(20, 100)

	total, err := s.repo.Count(ctx, s.db, userID, req.UnreadOnly)
	if err != nil {
		return domain.ListResponse{}, err
	}
	unread, err := s.repo.Count(ctx, s.db, userID, true)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, err := s.repo.List(ctx, s.db, userID, req.UnreadOnly, page.PageSize, page.Offset())
	if err != nil {
		return domain.ListResponse{}, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return domain.ListResponse{
		PageInfo:      pagination.BuildPageInfo(page, total),
		Notifications: items,
		UnreadCount:   unread,
	}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id snowflake.ID) error {
	affected, err := s.repo.MarkRead(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
