package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Course struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	InstructorID  uint             `gorm:"not null;index" json:"instructor_id"`
	Title         string           `gorm:"size:255;not null" json:"title"`
	Slug          string           `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description   string           `gorm:"type:text" json:"description"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	Currency      string           `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	Published     bool             `gorm:"not null;default:false;index" json:"published"`
	ThumbnailURL  string           `gorm:"size:512" json:"thumbnail_url"`
	// EnrollmentCount mirrors the number of ACTIVE or COMPLETED enrollments.
	EnrollmentCount int64          `gorm:"not null;default:0" json:"enrollment_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Instructor User `gorm:"foreignKey:InstructorID" json:"-"`
}

// ChargeAmount is the price a purchase made now would pay.
func (c *Course) ChargeAmount() decimal.Decimal {
	if c.DiscountPrice != nil {
		return *c.DiscountPrice
	}
	return c.Price
}

func (Course) TableName() string {
	return "courses"
}
