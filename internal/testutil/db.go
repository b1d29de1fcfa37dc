// Package testutil provides database fixtures shared by repository, service and handler tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"coursemart/config"
	"coursemart/internal/database"
	"coursemart/internal/domain"
	"coursemart/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a temp directory. A single connection keeps
// concurrent transactions serialized the way row locks serialize them on MySQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "coursemart.db") + "?_busy_timeout=5000"
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             dsn,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts a student with a unique email.
func SeedUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	if role == "" {
		role = domain.RoleStudent
	}
	var n int64
	db.Model(&models.User{}).Count(&n)
	u := &models.User{
		Username: fmt.Sprintf("user%d", n+1),
		Email:    fmt.Sprintf("user%d@example.com", n+1),
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse inserts a course priced in NGN. Pass published=false for a draft.
func SeedCourse(t *testing.T, db *gorm.DB, instructorID uint, price string, published bool) *models.Course {
	t.Helper()
	var n int64
	db.Model(&models.Course{}).Count(&n)
	c := &models.Course{
		InstructorID: instructorID,
		Title:        fmt.Sprintf("Course %d", n+1),
		Slug:         fmt.Sprintf("course-%d", n+1),
		Price:        decimal.RequireFromString(price),
		Currency:     domain.DefaultCurrency,
		Published:    published,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}
