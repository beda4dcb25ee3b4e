package processors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"billhive/app/models"
	"billhive/app/repository"
	"billhive/internal/pkg/messaging"
	"billhive/internal/pkg/tenantcontext"
)

// PaymentProcessor applies externally collected payments to invoices,
// exactly once per idempotency key. Redeliveries short-circuit on the
// ledger lookup; concurrent duplicates lose on the unique index and
// retry into the short-circuit.
type PaymentProcessor struct {
	uow repository.UnitOfWork
}

func NewPaymentProcessor(uow repository.UnitOfWork) *PaymentProcessor {
	return &PaymentProcessor{uow: uow}
}

// Handle consumes payment.apply from the payment-commands queue.
func (p *PaymentProcessor) Handle(ctx context.Context, envelope *messaging.Envelope) error {
	if envelope.MessageType != messaging.TypeApplyPayment {
		return messaging.Permanentf("unknown message type: %s", envelope.MessageType)
	}

	tenantID, ok := tenantcontext.ValidTenantID(ctx)
	if !ok {
		return messaging.Permanentf("missing tenant id")
	}

	var cmd messaging.ApplyPaymentCommand
	if err := envelope.DecodePayload(&cmd); err != nil {
		return err
	}

	return p.uow.Do(ctx, func(repos *repository.Repositories) error {
		_, err := repos.IdempotencyKey.Find(ctx, tenantID, models.IdempotencyOperationPayment, cmd.IdempotencyKey)
		if err == nil {
			log.Infow("Idempotency key already processed, skipping",
				"feature", "payment",
				"operation", "apply_payment",
				"tenant_id", tenantID,
				"correlation_id", envelope.CorrelationID,
				"idempotency_key", cmd.IdempotencyKey)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("idempotency lookup failed: %w", err)
		}

		invoice, err := repos.Invoice.FindByUUID(ctx, tenantID, cmd.InvoiceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return messaging.Permanentf("invoice not found: %s", cmd.InvoiceID)
		}
		if err != nil {
			return fmt.Errorf("invoice lookup failed: %w", err)
		}

		if !invoice.IsPayable() {
			return messaging.Permanentf("invoice status %s is not valid for payment", invoice.Status)
		}

		now := time.Now().UTC()
		payment := &models.Payment{
			UUID:          uuid.New().String(),
			TenantID:      tenantID,
			InvoiceID:     invoice.ID,
			Amount:        cmd.Amount,
			CurrencyCode:  cmd.Currency,
			Method:        models.PaymentMethodExternal,
			Status:        models.PaymentStatusSucceeded,
			AppliedAt:     now,
			CorrelationID: envelope.CorrelationID,
		}
		if err := repos.Payment.Create(ctx, payment); err != nil {
			return fmt.Errorf("payment insert failed: %w", err)
		}

		invoice.PaidAmount += cmd.Amount
		if invoice.PaidAmount >= invoice.TotalAmount {
			invoice.Status = models.InvoiceStatusPaid
			invoice.PaidAt = &now
		}
		if err := repos.Invoice.Save(ctx, invoice); err != nil {
			return fmt.Errorf("invoice update failed: %w", err)
		}

		if err := repos.IdempotencyKey.Create(ctx, &models.IdempotencyKey{
			TenantID:  tenantID,
			Operation: models.IdempotencyOperationPayment,
			KeyValue:  cmd.IdempotencyKey,
		}); err != nil {
			// Unique-index violation here means a concurrent delivery
			// won the race; the rollback plus redelivery resolves it as
			// a duplicate, so transient is the right classification.
			return fmt.Errorf("idempotency key insert failed: %w", err)
		}

		data, _ := json.Marshal(map[string]interface{}{
			"invoice_id":     invoice.UUID,
			"amount":         cmd.Amount,
			"currency":       cmd.Currency,
			"invoice_status": invoice.Status,
		})
		if err := repos.AuditLog.Create(ctx, &models.AuditLog{
			TenantID:      tenantID,
			EntityType:    "payment",
			EntityID:      payment.UUID,
			Action:        models.AuditActionPaymentApplied,
			DataJSON:      string(data),
			CorrelationID: envelope.CorrelationID,
			OccurredAt:    now,
		}); err != nil {
			return fmt.Errorf("audit insert failed: %w", err)
		}

		log.Infow("Applied payment",
			"feature", "payment",
			"operation", "apply_payment",
			"tenant_id", tenantID,
			"correlation_id", envelope.CorrelationID,
			"invoice_id", cmd.InvoiceID,
			"amount", cmd.Amount,
			"currency", cmd.Currency,
			"invoice_status", invoice.Status)
		return nil
	})
}
