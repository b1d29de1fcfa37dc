package repository

import (
	"errors"
	"time"

	"coursemart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record stores a delivery. When the provider already delivered the same event, the earlier
// row is returned with its delivery counter bumped and isNew is false.
func (r *WebhookEventRepository) Record(ev *models.WebhookEvent) (*models.WebhookEvent, bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Deliveries == 0 {
		ev.Deliveries = 1
	}
	err := r.db.Create(ev).Error
	if err == nil {
		return ev, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}
	var existing models.WebhookEvent
	if err := r.db.Where("provider = ? AND event_key = ?", ev.Provider, ev.EventKey).First(&existing).Error; err != nil {
		return nil, false, err
	}
	if err := r.db.Model(&existing).UpdateColumn("deliveries", gorm.Expr("deliveries + 1")).Error; err != nil {
		return nil, false, err
	}
	existing.Deliveries++
	return &existing, false, nil
}

// MarkProcessed stamps the event; a non-empty errMsg records why processing did not finish.
func (r *WebhookEventRepository) MarkProcessed(id string, errMsg string) error {
	updates := map[string]interface{}{"processing_error": errMsg}
	if errMsg == "" {
		updates["processed_at"] = time.Now()
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *WebhookEventRepository) GetByKey(provider, key string) (*models.WebhookEvent, error) {
	var ev models.WebhookEvent
	if err := r.db.Where("provider = ? AND event_key = ?", provider, key).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}
