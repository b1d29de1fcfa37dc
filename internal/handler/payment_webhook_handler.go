package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"coursemart/internal/domain"
	"coursemart/internal/models"
	"coursemart/internal/repository"
	"coursemart/internal/service"
	"coursemart/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WebhookSource says where a provider puts its signature and how to check it.
type WebhookSource struct {
	Header   string
	Verifier *payment.SignatureVerifier
}

type PaymentWebhookHandler struct {
	svc       *service.PaymentService
	eventRepo *repository.WebhookEventRepository
	sources   map[string]WebhookSource
}

func NewPaymentWebhookHandler(svc *service.PaymentService, eventRepo *repository.WebhookEventRepository, sources map[string]WebhookSource) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc, eventRepo: eventRepo, sources: sources}
}

type webhookEnvelope struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Handle answers 2xx once the event is processed or safely ignored, and 5xx only when a retry
// could succeed, so the provider's redelivery does the retrying.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	provider := c.Param("provider")
	src, ok := h.sources[provider]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !src.Verifier.Verify(body, c.GetHeader(src.Header)) {
		log.Printf("[webhook] %s: rejected signature from %s", provider, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ref := eventReference(env)

	ev, isNew, err := h.eventRepo.Record(&models.WebhookEvent{
		Provider:  provider,
		EventKey:  eventKey(env, ref),
		EventType: env.Event,
		Reference: ref,
		Payload:   env.Data,
	})
	if err != nil {
		log.Printf("[webhook] %s: record %s %s: %v", provider, env.Event, ref, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record event"})
		return
	}
	if !isNew && ev.ProcessedAt != nil {
		log.Printf("[webhook] %s: duplicate %s for %s (delivery %d)", provider, env.Event, ref, ev.Deliveries)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch env.Event {
	case domain.EventChargeSuccess, domain.EventChargeFailed:
		if ref == "" {
			h.finish(c, ev, errors.New("event has no reference"))
			return
		}
		_, err = h.svc.Reconcile(c.Request.Context(), ref, domain.SourceWebhook, env.Data)
	case domain.EventRefundProcessed:
		if ref == "" {
			h.finish(c, ev, errors.New("event has no reference"))
			return
		}
		_, err = h.svc.Refund(c.Request.Context(), ref, env.Data)
	default:
		log.Printf("[webhook] %s: ignoring %s", provider, env.Event)
	}

	if err != nil && !errors.Is(err, domain.ErrTxNotFound) {
		log.Printf("[webhook] %s: %s %s failed, asking for redelivery: %v", provider, env.Event, ref, err)
		if merr := h.eventRepo.MarkProcessed(ev.ID, err.Error()); merr != nil {
			log.Printf("[webhook] mark %s: %v", ev.ID, merr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	if err != nil {
		log.Printf("[webhook] %s: %s for unknown reference %s", provider, env.Event, ref)
	}
	h.finish(c, ev, nil)
}

// finish stamps the event as done; ignored carries the reason it was dropped.
func (h *PaymentWebhookHandler) finish(c *gin.Context, ev *models.WebhookEvent, ignored error) {
	msg := ""
	if ignored != nil {
		msg = ignored.Error()
		log.Printf("[webhook] %s %s dropped: %s", ev.Provider, ev.EventType, msg)
	}
	if err := h.eventRepo.MarkProcessed(ev.ID, ""); err != nil {
		log.Printf("[webhook] mark %s: %v", ev.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// eventReference finds the transaction reference: charges carry it in data.reference, refunds
// in data.transaction_reference or data.transaction.reference.
func eventReference(env webhookEnvelope) string {
	if s, ok := env.Data["transaction_reference"].(string); ok && s != "" {
		return s
	}
	if tx, ok := env.Data["transaction"].(map[string]interface{}); ok {
		if s, ok := tx["reference"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := env.Data["reference"].(string); ok {
		return s
	}
	return ""
}

// eventKey identifies one provider event across redeliveries.
func eventKey(env webhookEnvelope, ref string) string {
	if id, ok := env.Data["id"]; ok && id != nil {
		switch v := id.(type) {
		case float64:
			return fmt.Sprintf("%s:%.0f", env.Event, v)
		default:
			return fmt.Sprintf("%s:%v", env.Event, v)
		}
	}
	return env.Event + ":" + ref
}
