package repository

import (
	"errors"

	"coursemart/internal/domain"
	"coursemart/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) WithTx(tx *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: tx}
}

func (r *EnrollmentRepository) Get(userID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return &e, nil
}

// Exists reports whether any enrollment row, refunded ones included, exists for the pair.
func (r *EnrollmentRepository) Exists(userID, courseID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&c).Error
	return c > 0, err
}

// CreateIfAbsent inserts e unless the (user, course) pair already has a row. The unique index
// decides; created is true only when this call wrote the row.
func (r *EnrollmentRepository) CreateIfAbsent(e *models.Enrollment) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkRefunded moves the ACTIVE or COMPLETED enrollment bought by transactionID to REFUNDED.
// changed is false when there was nothing to move.
func (r *EnrollmentRepository) MarkRefunded(userID, courseID uint, transactionID string) (bool, error) {
	res := r.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND transaction_id = ? AND status IN ?", userID, courseID, transactionID,
			[]string{domain.EnrollmentActive, domain.EnrollmentCompleted}).
		Update("status", domain.EnrollmentRefunded)
	return res.RowsAffected == 1, res.Error
}

func (r *EnrollmentRepository) ListByUser(userID uint, limit, offset int) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := r.db.Where("user_id = ?", userID).Preload("Course").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// CountCounted returns how many enrollments of a course count toward its enrollment counter.
func (r *EnrollmentRepository) CountCounted(courseID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID, []string{domain.EnrollmentActive, domain.EnrollmentCompleted}).
		Count(&c).Error
	return c, err
}
