package repository

import (
	"errors"
	"testing"

	"coursemart/internal/domain"
	"coursemart/internal/models"
	"coursemart/internal/testutil"
)

func TestEnrollmentRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEnrollmentRepository(db)
	u := testutil.SeedUser(t, db, "")
	c := testutil.SeedCourse(t, db, u.ID, "5000", true)

	e := &models.Enrollment{UserID: u.ID, CourseID: c.ID, PricePaid: c.Price, Currency: c.Currency, Status: domain.EnrollmentActive}
	created, err := repo.CreateIfAbsent(e)
	if err != nil || !created {
		t.Fatalf("first insert = %v, %v", created, err)
	}
	dup := &models.Enrollment{UserID: u.ID, CourseID: c.ID, PricePaid: c.Price, Currency: c.Currency, Status: domain.EnrollmentActive}
	created, err = repo.CreateIfAbsent(dup)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Fatal("second insert must report not created")
	}

	n, err := repo.CountCounted(c.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountCounted = %d, %v", n, err)
	}
}

func TestEnrollmentRepository_MarkRefunded(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEnrollmentRepository(db)
	u := testutil.SeedUser(t, db, "")
	c := testutil.SeedCourse(t, db, u.ID, "5000", true)

	if changed, err := repo.MarkRefunded(u.ID, c.ID, "tx-1"); err != nil || changed {
		t.Fatalf("refund without enrollment = %v, %v", changed, err)
	}
	if _, err := repo.CreateIfAbsent(&models.Enrollment{UserID: u.ID, CourseID: c.ID, TransactionID: "tx-1", PricePaid: c.Price, Currency: c.Currency, Status: domain.EnrollmentActive}); err != nil {
		t.Fatal(err)
	}
	if changed, _ := repo.MarkRefunded(u.ID, c.ID, "tx-other"); changed {
		t.Fatal("refund of another transaction must not touch the enrollment")
	}
	if changed, err := repo.MarkRefunded(u.ID, c.ID, "tx-1"); err != nil || !changed {
		t.Fatalf("refund = %v, %v", changed, err)
	}
	if changed, _ := repo.MarkRefunded(u.ID, c.ID, "tx-1"); changed {
		t.Fatal("second refund must be a no-op")
	}

	exists, err := repo.Exists(u.ID, c.ID)
	if err != nil || !exists {
		t.Fatalf("refunded row should still exist: %v, %v", exists, err)
	}
	if n, _ := repo.CountCounted(c.ID); n != 0 {
		t.Fatalf("refunded enrollment still counted: %d", n)
	}
}

func TestEnrollmentRepository_GetNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	if _, err := NewEnrollmentRepository(db).Get(1, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
