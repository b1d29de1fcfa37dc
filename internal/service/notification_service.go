package service

import (
	"context"
	"log"

	"coursemart/internal/domain"
	"coursemart/internal/events"
	"coursemart/internal/models"
	"coursemart/internal/ws"
)

// NotificationService fans committed payment outcomes out to the event bus and to the buyer's
// open websocket connections. Either side may be nil.
type NotificationService struct {
	publisher events.Publisher
	hub       *ws.Hub
}

func NewNotificationService(publisher events.Publisher, hub *ws.Hub) *NotificationService {
	return &NotificationService{publisher: publisher, hub: hub}
}

func (s *NotificationService) PaymentCompleted(ctx context.Context, tx *models.Transaction, source string, enrollmentCreated bool) {
	if s == nil {
		return
	}
	if enrollmentCreated {
		s.publish(ctx, domain.TopicEnrollmentCreated, tx, source)
	}
	s.push(tx, true)
}

func (s *NotificationService) PaymentFailed(ctx context.Context, tx *models.Transaction, source string) {
	if s == nil {
		return
	}
	s.publish(ctx, domain.TopicPaymentFailed, tx, source)
	s.push(tx, false)
}

func (s *NotificationService) PaymentRefunded(ctx context.Context, tx *models.Transaction, source string) {
	if s == nil {
		return
	}
	s.publish(ctx, domain.TopicEnrollmentRefunded, tx, source)
	s.push(tx, false)
}

func (s *NotificationService) publish(ctx context.Context, topic string, tx *models.Transaction, source string) {
	if s.publisher == nil {
		return
	}
	ev := events.New(topic)
	ev.Reference = tx.ProviderReference
	ev.TransactionID = tx.ID
	ev.UserID = tx.UserID
	ev.CourseID = tx.CourseID
	ev.Amount = tx.Amount.StringFixed(2)
	ev.Currency = tx.Currency
	ev.Source = source
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[events] publish %s for %s: %v", topic, tx.ProviderReference, err)
	}
}

func (s *NotificationService) push(tx *models.Transaction, enrolled bool) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyPayment(tx.UserID, ws.PaymentUpdate{
		Reference: tx.ProviderReference,
		Status:    tx.Status,
		CourseID:  tx.CourseID,
		Enrolled:  enrolled,
	})
}
