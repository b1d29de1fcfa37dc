package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enrollment is unique per (user, course) for the lifetime of the database, refunds included.
type Enrollment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID      uint            `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	TransactionID string          `gorm:"size:36;index" json:"transaction_id"`
	PricePaid     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_paid"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Status        string          `gorm:"size:20;not null;index" json:"status"` // ACTIVE, COMPLETED, REFUNDED
	Progress      int             `gorm:"not null;default:0" json:"progress"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
