package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Create(n).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	var items []domain.Notification
	stmt := scoped(ctx, db, userID, unreadOnly).Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool) (int64, error) {
	var total int64
	err := scoped(ctx, db, userID, unreadOnly).Count(&total).Error
	return total, err
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}

func scoped(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool) *gorm.DB {
	stmt := db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	return stmt
}
