package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is one purchase attempt. Amount and Currency are fixed at creation.
type Transaction struct {
	ID                string            `gorm:"primaryKey;size:36" json:"id"`
	ProviderReference string            `gorm:"size:64;not null;uniqueIndex" json:"reference"`
	Provider          string            `gorm:"size:30;not null" json:"provider"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	CourseID          uint              `gorm:"not null;index" json:"course_id"`
	Amount            decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string            `gorm:"size:3;not null" json:"currency"`
	Status            string            `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, REFUNDED
	Metadata          datatypes.JSONMap `json:"metadata"`
	CompletedAt       *time.Time        `json:"completed_at"`
	RefundedAt        *time.Time        `json:"refunded_at"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// AppendMetadata records value under stage without overwriting earlier entries; a repeated
// stage is stored as stage_2, stage_3 and so on.
func (t *Transaction) AppendMetadata(stage string, value interface{}) {
	if t.Metadata == nil {
		t.Metadata = datatypes.JSONMap{}
	}
	key := stage
	for n := 2; ; n++ {
		if _, taken := t.Metadata[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s_%d", stage, n)
	}
	t.Metadata[key] = value
}
