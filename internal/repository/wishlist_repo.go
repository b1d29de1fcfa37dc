package repository

import (
	"coursemart/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) WithTx(tx *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: tx}
}

// Add is a no-op when the course is already on the wishlist.
func (r *WishlistRepository) Add(userID, courseID uint) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WishlistItem{UserID: userID, CourseID: courseID}).Error
}

func (r *WishlistRepository) RemoveEntry(userID, courseID uint) error {
	return r.db.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.WishlistItem{}).Error
}

func (r *WishlistRepository) Contains(userID, courseID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.WishlistItem{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&c).Error
	return c > 0, err
}

func (r *WishlistRepository) ListByUser(userID uint, limit, offset int) ([]models.WishlistItem, error) {
	var list []models.WishlistItem
	err := r.db.Where("user_id = ?", userID).Preload("Course").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
