package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/disbursement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) SearchVouchers(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Voucher, error) {
	var vouchers []domain.Voucher
	stmt := db.WithContext(ctx).Model(&domain.Voucher{})
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		stmt = stmt.Where("LOWER(payee) LIKE ? OR LOWER(particulars) LIKE ? OR LOWER(id) LIKE ?", like, like, like)
	}
	err := stmt.Order("created_at desc").Limit(limit).Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (r *repo) FindVoucher(ctx context.Context, db *gorm.DB, id string) (*domain.Voucher, error) {
	var vouchers []domain.Voucher
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	if len(vouchers) == 0 {
		return nil, nil
	}
	return &vouchers[0], nil
}

func (r *repo) InsertLink(ctx context.Context, db *gorm.DB, link *domain.Link) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ppmp_disbursements (id, ppmp_id, ppmp_item_id, disbursement_id, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.PlanID,
		link.ItemID,
		link.DisbursementID,
		link.CreatedByID,
		link.CreatedAt,
	).Error
}

func (r *repo) FindLink(ctx context.Context, db *gorm.DB, planID, linkID snowflake.ID) (*domain.Link, error) {
	var link domain.Link
	err := db.WithContext(ctx).
		Where("id = ? AND ppmp_id = ?", linkID, planID).
		Limit(1).
		Find(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) LinkExists(ctx context.Context, db *gorm.DB, planID, itemID snowflake.ID, voucherID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Link{}).
		Where("ppmp_id = ? AND ppmp_item_id = ? AND disbursement_id = ?", planID, itemID, voucherID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) DeleteLink(ctx context.Context, db *gorm.DB, linkID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM ppmp_disbursements WHERE id = ?`, linkID).Error
}

func (r *repo) ListLinks(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.LinkView, error) {
	var rows []domain.LinkView
	err := db.WithContext(ctx).
		Table("ppmp_disbursements AS l").
		Select(`l.*,
			COALESCE(v.payee, '') AS payee,
			COALESCE(v.amount, 0) AS amount,
			COALESCE(v.status, '') AS voucher_status,
			v.release_date AS release_date,
			COALESCE(i.item_no, '') AS item_no,
			COALESCE(i.description, '') AS item_description`).
		Joins("LEFT JOIN disbursements v ON v.id = l.disbursement_id").
		Joins("LEFT JOIN ppmp_items i ON i.id = l.ppmp_item_id").
		Where("l.ppmp_id = ?", planID).
		Order("l.created_at desc, l.id desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
