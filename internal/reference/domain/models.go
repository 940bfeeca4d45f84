package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Department struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at,omitempty" gorm:"not null"`
}

func (Department) TableName() string { return "departments" }

// Product is a catalog entry line items may reference for unit and cost defaults.
type Product struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	Code      string          `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string          `json:"name" gorm:"type:text;not null"`
	Unit      string          `json:"unit" gorm:"type:text;not null"`
	UnitCost  decimal.Decimal `json:"unit_cost" gorm:"type:numeric(18,2);not null"`
	IsActive  bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"created_at,omitempty" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
