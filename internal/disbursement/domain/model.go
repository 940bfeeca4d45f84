package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Voucher is a disbursement voucher owned by the finance system. This
// service only reads it.
type Voucher struct {
	ID          string          `gorm:"primaryKey;type:text" json:"id"`
	Payee       string          `gorm:"type:text;not null" json:"payee"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Status      string          `gorm:"type:text;not null" json:"status"`
	Particulars string          `gorm:"type:text" json:"particulars"`
	ReleaseDate *time.Time      `json:"release_date,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Voucher) TableName() string { return "disbursements" }

// Link ties one line item of an approved plan to a voucher.
type Link struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PlanID         snowflake.ID `gorm:"column:ppmp_id;not null;uniqueIndex:ux_ppmp_disbursements_link" json:"ppmp_id"`
	ItemID         snowflake.ID `gorm:"column:ppmp_item_id;not null;uniqueIndex:ux_ppmp_disbursements_link" json:"ppmp_item_id"`
	DisbursementID string       `gorm:"type:text;not null;uniqueIndex:ux_ppmp_disbursements_link;index" json:"disbursement_id"`
	CreatedByID    snowflake.ID `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Link) TableName() string { return "ppmp_disbursements" }

// LinkView is a link joined with its voucher and item for display.
type LinkView struct {
	Link
	Payee           string          `json:"payee"`
	Amount          decimal.Decimal `json:"amount"`
	VoucherStatus   string          `json:"voucher_status"`
	ReleaseDate     *time.Time      `json:"release_date,omitempty"`
	ItemNo          string          `json:"item_no"`
	ItemDescription string          `json:"item_description"`
}
