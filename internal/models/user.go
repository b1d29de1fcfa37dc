package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local projection of an account; credentials live with the auth provider.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:64;not null;default:''" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string         `gorm:"size:20;not null;index" json:"role"` // STUDENT | INSTRUCTOR | ADMIN
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
