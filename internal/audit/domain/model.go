package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionCreate             Action = "CREATE"
	ActionUpdate             Action = "UPDATE"
	ActionDelete             Action = "DELETE"
	ActionSubmit             Action = "SUBMIT"
	ActionApprove            Action = "APPROVE"
	ActionReject             Action = "REJECT"
	ActionLinkDisbursement   Action = "LINK_DISBURSEMENT"
	ActionUnlinkDisbursement Action = "UNLINK_DISBURSEMENT"
	ActionCancel             Action = "CANCEL"
)

const (
	EntityPlan         = "PPMP"
	EntityItem         = "PPMP_ITEM"
	EntityAllocation   = "BUDGET_ALLOCATION"
	EntityActivity     = "PROCUREMENT_ACTIVITY"
	EntityDisbursement = "PPMP_DISBURSEMENT"
	EntityPurchase     = "PURCHASE_REQUEST"
	EntityPurchaseLine = "PURCHASE_REQUEST_PRODUCT"
)

// AuditLog is an append-only record of a state-changing operation.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	PlanID     *snowflake.ID     `gorm:"column:ppmp_id;index" json:"ppmp_id,omitempty"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	EntityType string            `gorm:"type:text;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   snowflake.ID      `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	UserID     snowflake.ID      `gorm:"not null" json:"user_id"`
	OldValues  datatypes.JSONMap `json:"old_values,omitempty"`
	NewValues  datatypes.JSONMap `json:"new_values,omitempty"`
	IPAddress  *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
