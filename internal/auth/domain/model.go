// Package domain contains the user and session records provisioned by the
// external sign-in provider. This service only reads them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Name         string        `gorm:"type:text;not null"`
	Email        string        `gorm:"column:email;uniqueIndex"`
	Role         string        `gorm:"type:text;not null"`
	DepartmentID *snowflake.ID `gorm:"column:department_id;index"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
