package billing

import (
	"log"

	"github.com/inceptionai/inception/app/models"
	"github.com/inceptionai/inception/app/repository"
)

// Service keeps the webhook audit trail around the reducer. The trail is
// write-only bookkeeping: recording failures never block event
// application.
type Service struct {
	events repository.WebhookEventRepository
}

// NewService creates the billing audit service.
func NewService(events repository.WebhookEventRepository) *Service {
	return &Service{events: events}
}

// RecordWebhookEvent stores an inbound event in the audit trail and
// returns its row id. Redelivered events reuse the existing row.
func (s *Service) RecordWebhookEvent(provider, eventID, eventType string, payload []byte) uint {
	created, stored, err := s.events.CreateIfNotExists(&models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		log.Printf("[Billing] Failed to record webhook event %s: %v", eventID, err)
		return 0
	}
	if !created {
		log.Printf("[Billing] Webhook event %s redelivered, reprocessing", eventID)
	}
	return stored.ID
}

// MarkWebhookProcessed stamps the audit row with the processing outcome.
func (s *Service) MarkWebhookProcessed(id uint, processingError error) {
	if id == 0 {
		return
	}
	msg := ""
	if processingError != nil {
		msg = processingError.Error()
	}
	if err := s.events.MarkProcessed(id, msg); err != nil {
		log.Printf("[Billing] Failed to mark webhook event %d processed: %v", id, err)
	}
}
