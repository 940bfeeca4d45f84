package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"gorm.io/gorm"
)

const detailColumns = `pr.*,
	COALESCE(d.name, '') AS department_name,
	COALESCE(u.name, '') AS created_by_name`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pr *domain.PurchaseRequest) error {
	return db.WithContext(ctx).Create(pr).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PurchaseRequest, error) {
	var rows []domain.PurchaseRequest
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Detail, error) {
	var rows []domain.Detail
	err := detailQuery(ctx, db).Where("pr.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) PRNoExists(ctx context.Context, db *gorm.DB, prNo string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.PurchaseRequest{}).
		Where("pr_no = ?", prNo).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]domain.Detail, error) {
	var rows []domain.Detail
	stmt := applyFilter(detailQuery(ctx, db), filter).Order("pr.created_at desc, pr.id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.Filter) (int64, error) {
	var total int64
	stmt := db.WithContext(ctx).Table("purchase_requests AS pr")
	err := applyFilter(stmt, filter).Count(&total).Error
	return total, err
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return db.WithContext(ctx).Model(&domain.PurchaseRequest{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	stmt := db.WithContext(ctx)
	if err := stmt.Exec(`DELETE FROM purchase_request_products WHERE purchase_request_id = ?`, id).Error; err != nil {
		return err
	}
	return stmt.Exec(`DELETE FROM purchase_requests WHERE id = ?`, id).Error
}

func (r *repo) FindItemRef(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*domain.ItemRef, error) {
	var rows []domain.ItemRef
	err := db.WithContext(ctx).
		Table("ppmp_items AS i").
		Select(`i.id AS item_id,
			i.ppmp_id AS plan_id,
			i.unit AS unit,
			i.quantity AS quantity,
			p.status AS plan_status,
			p.department_id AS department_id`).
		Joins("JOIN ppmps p ON p.id = i.ppmp_id").
		Where("i.id = ?", itemID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) InsertLine(ctx context.Context, db *gorm.DB, line *domain.Line) error {
	return db.WithContext(ctx).Create(line).Error
}

func (r *repo) FindLine(ctx context.Context, db *gorm.DB, requestID, lineID snowflake.ID) (*domain.Line, error) {
	var line domain.Line
	err := db.WithContext(ctx).
		Where("id = ? AND purchase_request_id = ?", lineID, requestID).
		Limit(1).
		Find(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

func (r *repo) DeleteLine(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM purchase_request_products WHERE id = ?`, lineID).Error
}

func (r *repo) ListLines(ctx context.Context, db *gorm.DB, requestID snowflake.ID) ([]domain.LineView, error) {
	var rows []domain.LineView
	err := db.WithContext(ctx).
		Table("purchase_request_products AS l").
		Select(`l.*,
			COALESCE(i.item_no, '') AS item_no,
			COALESCE(i.description, '') AS item_description,
			COALESCE(i.quantity, 0) AS planned_quantity,
			COALESCE(p.title, '') AS plan_title,
			COALESCE(p.fiscal_year, 0) AS plan_fiscal_year,
			COALESCE(p.status, '') AS plan_status,
			COALESCE(p.department_id, 0) AS plan_department_id`).
		Joins("LEFT JOIN ppmp_items i ON i.id = l.ppmp_item_id").
		Joins("LEFT JOIN ppmps p ON p.id = l.ppmp_id").
		Where("l.purchase_request_id = ?", requestID).
		Order("l.created_at asc, l.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func detailQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("purchase_requests AS pr").
		Select(detailColumns).
		Joins("LEFT JOIN departments d ON d.id = pr.department_id").
		Joins("LEFT JOIN users u ON u.id = pr.created_by_id")
}

func applyFilter(stmt *gorm.DB, filter domain.Filter) *gorm.DB {
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("pr.status = ?", status)
	}
	if filter.DepartmentID != nil {
		stmt = stmt.Where("pr.department_id = ?", *filter.DepartmentID)
	}
	if filter.Aligned != nil {
		stmt = stmt.Where("pr.ppmp_aligned = ?", *filter.Aligned)
	}
	if v := filter.Visible; v != nil {
		if v.DepartmentID != nil {
			stmt = stmt.Where("(pr.department_id = ? OR pr.created_by_id = ?)", *v.DepartmentID, v.CreatedByID)
		} else {
			stmt = stmt.Where("pr.created_by_id = ?", v.CreatedByID)
		}
	}
	return stmt
}
