package database

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"coursemart/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "log.db")), &gorm.Config{Logger: newLogger(&buf)})
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatal(err)
	}

	var e models.Enrollment
	err = db.Where("user_id = ? AND course_id = ?", 1, 1).First(&e).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("missing row was logged: %s", buf.String())
	}

	if err := db.Exec("SELECT * FROM no_such_table").Error; err == nil {
		t.Fatal("expected an error for a missing table")
	}
	if buf.Len() == 0 {
		t.Fatal("failed statement was not logged")
	}
}
