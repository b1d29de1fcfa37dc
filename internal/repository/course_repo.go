package repository

import (
	"coursemart/internal/domain"
	"coursemart/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{db: tx}
}

func (r *CourseRepository) Create(c *models.Course) error {
	return r.db.Create(c).Error
}

func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var c models.Course
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, notFound(err, domain.ErrCourseNotFound)
	}
	return &c, nil
}

func (r *CourseRepository) ListPublished(limit, offset int) ([]models.Course, error) {
	var list []models.Course
	err := r.db.Where("published = ?", true).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *CourseRepository) SetPublished(id uint, published bool) error {
	res := r.db.Model(&models.Course{}).Where("id = ?", id).Update("published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) SetThumbnail(id uint, url string) error {
	return r.db.Model(&models.Course{}).Where("id = ?", id).Update("thumbnail_url", url).Error
}

// IncrementEnrollmentCount fails with ErrCourseNotFound when the course row is gone, which
// aborts the enclosing enrollment transaction.
func (r *CourseRepository) IncrementEnrollmentCount(id uint) error {
	res := r.db.Model(&models.Course{}).Where("id = ?", id).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) DecrementEnrollmentCount(id uint) error {
	res := r.db.Model(&models.Course{}).Where("id = ? AND enrollment_count > 0", id).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}
