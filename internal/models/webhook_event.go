package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent records every authenticated provider delivery. EventKey is unique per provider,
// so a redelivery of the same event finds the earlier row.
type WebhookEvent struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	Provider        string            `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event,priority:1" json:"provider"`
	EventKey        string            `gorm:"size:191;not null;uniqueIndex:idx_webhook_provider_event,priority:2" json:"event_key"`
	EventType       string            `gorm:"size:100;not null;index" json:"event_type"`
	Reference       string            `gorm:"size:64;index" json:"reference"`
	Payload         datatypes.JSONMap `json:"payload"`
	Deliveries      int               `gorm:"not null;default:1" json:"deliveries"`
	ProcessedAt     *time.Time        `json:"processed_at"`
	ProcessingError string            `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
