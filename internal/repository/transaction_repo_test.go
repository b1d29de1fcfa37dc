package repository

import (
	"errors"
	"testing"
	"time"

	"coursemart/internal/domain"
	"coursemart/internal/models"
	"coursemart/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newPendingTx(userID, courseID uint, ref string) *models.Transaction {
	return &models.Transaction{
		ID:                uuid.NewString(),
		ProviderReference: ref,
		Provider:          "stub",
		UserID:            userID,
		CourseID:          courseID,
		Amount:            decimal.NewFromInt(5000),
		Currency:          domain.DefaultCurrency,
		Status:            domain.TxStatusPending,
	}
}

func TestTransactionRepository_CreateRejectsDuplicateReference(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db)
	u := testutil.SeedUser(t, db, "")
	c := testutil.SeedCourse(t, db, u.ID, "5000", true)

	if err := repo.Create(newPendingTx(u.ID, c.ID, "CM-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(newPendingTx(u.ID, c.ID, "CM-1"))
	if !errors.Is(err, domain.ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
	exists, err := repo.ReferenceExists("CM-1")
	if err != nil || !exists {
		t.Fatalf("ReferenceExists = %v, %v", exists, err)
	}
}

func TestTransactionRepository_GetByReferenceNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewTransactionRepository(db).GetByReference("missing")
	if !errors.Is(err, domain.ErrTxNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrTxNotFound, got %v", err)
	}
}

func TestTransactionRepository_TransitionIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db)
	u := testutil.SeedUser(t, db, "")
	c := testutil.SeedCourse(t, db, u.ID, "5000", true)
	tx := newPendingTx(u.ID, c.ID, "CM-2")
	if err := repo.Create(tx); err != nil {
		t.Fatal(err)
	}

	tx.AppendMetadata("verify", map[string]interface{}{"status": "success"})
	ok, err := repo.Transition(tx, domain.TxStatusPending, domain.TxStatusCompleted)
	if err != nil || !ok {
		t.Fatalf("first transition = %v, %v", ok, err)
	}
	stale := *tx
	stale.Status = domain.TxStatusPending
	ok, err = repo.Transition(&stale, domain.TxStatusPending, domain.TxStatusFailed)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("transition from a stale status must not apply")
	}

	got, err := repo.GetByReference("CM-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.TxStatusCompleted || got.CompletedAt == nil {
		t.Fatalf("got status %s completed_at %v", got.Status, got.CompletedAt)
	}
	if _, ok := got.Metadata["verify"]; !ok {
		t.Fatalf("metadata not persisted: %v", got.Metadata)
	}
}

func TestTransactionRepository_ListStalePending(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db)
	u := testutil.SeedUser(t, db, "")
	c := testutil.SeedCourse(t, db, u.ID, "5000", true)

	old := newPendingTx(u.ID, c.ID, "CM-old")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := newPendingTx(u.ID, c.ID, "CM-fresh")
	done := newPendingTx(u.ID, c.ID, "CM-done")
	done.Status = domain.TxStatusCompleted
	done.CreatedAt = time.Now().Add(-48 * time.Hour)
	for _, tx := range []*models.Transaction{old, fresh, done} {
		if err := repo.Create(tx); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.ListStalePending(time.Now().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ProviderReference != "CM-old" {
		t.Fatalf("unexpected stale list: %+v", list)
	}
}

func TestAppendMetadataNeverOverwrites(t *testing.T) {
	tx := &models.Transaction{}
	tx.AppendMetadata("webhook", "first")
	tx.AppendMetadata("webhook", "second")
	tx.AppendMetadata("webhook", "third")
	if tx.Metadata["webhook"] != "first" || tx.Metadata["webhook_2"] != "second" || tx.Metadata["webhook_3"] != "third" {
		t.Fatalf("unexpected metadata: %v", tx.Metadata)
	}
}
