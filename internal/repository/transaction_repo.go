package repository

import (
	"errors"
	"time"

	"coursemart/internal/domain"
	"coursemart/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a repository bound to an open gorm transaction.
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	err := r.db.Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateReference
	}
	return err
}

func (r *TransactionRepository) GetByID(id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err, domain.ErrTxNotFound)
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReference(ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("provider_reference = ?", ref).First(&t).Error; err != nil {
		return nil, notFound(err, domain.ErrTxNotFound)
	}
	return &t, nil
}

// GetByReferenceForUpdate locks the row until the surrounding transaction ends.
func (r *TransactionRepository) GetByReferenceForUpdate(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_reference = ?", ref).First(&t).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTxNotFound)
	}
	return &t, nil
}

func (r *TransactionRepository) ReferenceExists(ref string) (bool, error) {
	var c int64
	err := r.db.Model(&models.Transaction{}).Where("provider_reference = ?", ref).Count(&c).Error
	return c > 0, err
}

// Transition moves t from one status to another and persists its metadata. The update is
// conditional on the stored status still being from, so a lost race changes nothing and
// reports false.
func (r *TransactionRepository) Transition(t *models.Transaction, from, to string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"metadata":   t.Metadata,
		"updated_at": now,
	}
	switch to {
	case domain.TxStatusCompleted:
		updates["completed_at"] = now
	case domain.TxStatusRefunded:
		updates["refunded_at"] = now
	}
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", t.ID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = now
	switch to {
	case domain.TxStatusCompleted:
		t.CompletedAt = &now
	case domain.TxStatusRefunded:
		t.RefundedAt = &now
	}
	return true, nil
}

// SaveMetadata persists metadata without touching the status.
func (r *TransactionRepository) SaveMetadata(t *models.Transaction) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{"metadata": t.Metadata, "updated_at": time.Now()}).Error
}

func (r *TransactionRepository) ListByUser(userID uint, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListStalePending returns PENDING transactions created before cutoff, oldest first.
func (r *TransactionRepository) ListStalePending(cutoff time.Time, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("status = ? AND created_at < ?", domain.TxStatusPending, cutoff).
		Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
