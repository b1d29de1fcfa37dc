package models

import "time"

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
