package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a payment state change, written in the same database
// transaction as the change itself.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     *uint             `gorm:"index" json:"user_id"`
	Action     string            `gorm:"size:100;not null;index" json:"action"`
	Resource   string            `gorm:"size:100;index:idx_audit_resource,priority:1" json:"resource"`
	ResourceID string            `gorm:"size:100;index:idx_audit_resource,priority:2" json:"resource_id"`
	FromStatus string            `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus   string            `gorm:"size:20" json:"to_status,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
