package processors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"billhive/app/models"
	"billhive/app/repository"
	"billhive/internal/pkg/messaging"
	"billhive/internal/pkg/tenantcontext"
)

// WebhookProcessor finalizes or replays stored webhook events. The
// replay precondition (event already processed or failed) is owned by
// the boundary that requests the replay, not re-checked here.
type WebhookProcessor struct {
	uow repository.UnitOfWork
}

func NewWebhookProcessor(uow repository.UnitOfWork) *WebhookProcessor {
	return &WebhookProcessor{uow: uow}
}

// Handle consumes webhook.received and webhook.replay_requested from
// the webhook-ingest queue.
func (p *WebhookProcessor) Handle(ctx context.Context, envelope *messaging.Envelope) error {
	tenantID, ok := tenantcontext.ValidTenantID(ctx)
	if !ok {
		return messaging.Permanentf("missing tenant id")
	}

	switch envelope.MessageType {
	case messaging.TypeWebhookReceived:
		var msg messaging.WebhookReceivedMessage
		if err := envelope.DecodePayload(&msg); err != nil {
			return err
		}
		return p.finalize(ctx, envelope, tenantID, msg.WebhookEventID, models.AuditActionWebhookProcessed)

	case messaging.TypeWebhookReplayRequested:
		var msg messaging.WebhookReplayRequestedMessage
		if err := envelope.DecodePayload(&msg); err != nil {
			return err
		}
		return p.finalize(ctx, envelope, tenantID, msg.WebhookEventID, models.AuditActionWebhookReplayed)

	default:
		return messaging.Permanentf("unknown message type: %s", envelope.MessageType)
	}
}

func (p *WebhookProcessor) finalize(ctx context.Context, envelope *messaging.Envelope, tenantID, eventID, auditAction string) error {
	return p.uow.Do(ctx, func(repos *repository.Repositories) error {
		event, err := repos.WebhookEvent.FindByUUID(ctx, tenantID, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return messaging.Permanentf("webhook event not found: %s", eventID)
		}
		if err != nil {
			return fmt.Errorf("webhook event lookup failed: %w", err)
		}

		now := time.Now().UTC()
		event.ProcessingStatus = models.WebhookStatusProcessed
		event.ProcessedAt = &now
		event.ErrorMessage = ""
		if err := repos.WebhookEvent.Save(ctx, event); err != nil {
			return fmt.Errorf("webhook event update failed: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"provider":   event.Provider,
			"event_type": event.EventType,
		})
		if err := repos.AuditLog.Create(ctx, &models.AuditLog{
			TenantID:      tenantID,
			EntityType:    "webhook",
			EntityID:      event.UUID,
			Action:        auditAction,
			DataJSON:      string(data),
			CorrelationID: envelope.CorrelationID,
			OccurredAt:    now,
		}); err != nil {
			return fmt.Errorf("audit insert failed: %w", err)
		}

		log.Infow("Finalized webhook event",
			"feature", "webhook",
			"operation", auditAction,
			"tenant_id", tenantID,
			"correlation_id", envelope.CorrelationID,
			"webhook_event_id", eventID,
			"provider", event.Provider)
		return nil
	})
}
