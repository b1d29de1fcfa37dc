// Package events publishes enrollment and payment outcomes to the message bus.
package events

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event is the message body for every topic.
type Event struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	CourseID      uint      `json:"course_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(topic string) Event {
	return Event{ID: uuid.NewString(), Topic: topic, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, ev Event) error {
	log.Printf("[events] %s reference=%s user=%d course=%d", ev.Topic, ev.Reference, ev.UserID, ev.CourseID)
	return nil
}
