package processors

import (
	"context"
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

// Mailer delivers a single email. Nil means no provider is configured
// and sends are recorded as simulated.
type Mailer interface {
	Send(to, subject, body string) error
}

// EmailProcessor records and delivers invoice and dunning emails. The
// communication log row is the system of record; a provider failure is
// logged on the row, it does not fail the message.
type EmailProcessor struct {
	uow    repository.UnitOfWork
	mailer Mailer
}

func NewEmailProcessor(uow repository.UnitOfWork, mailer Mailer) *EmailProcessor {
	return &EmailProcessor{uow: uow, mailer: mailer}
}

// Handle consumes email.invoice_requested and email.dunning_requested
// from the email-send queue.
func (p *EmailProcessor) Handle(ctx context.Context, envelope *messaging.Envelope) error {
	tenantID, ok := tenantcontext.ValidTenantID(ctx)
	if !ok {
		return messaging.Permanentf("missing tenant id")
	}

	switch envelope.MessageType {
	case messaging.TypeInvoiceEmailRequested:
		var msg messaging.InvoiceEmailRequestedMessage
		if err := envelope.DecodePayload(&msg); err != nil {
			return err
		}
		return p.record(ctx, envelope, tenantID, models.CommunicationTypeInvoice,
			msg.InvoiceID, "", msg.ToEmail, msg.Subject, msg.Body)

	case messaging.TypeDunningEmailRequested:
		var msg messaging.DunningEmailRequestedMessage
		if err := envelope.DecodePayload(&msg); err != nil {
			return err
		}
		return p.record(ctx, envelope, tenantID, models.CommunicationTypeDunning,
			msg.InvoiceID, msg.CustomerID, msg.ToEmail, msg.Subject, msg.Body)

	default:
		return messaging.Permanentf("unknown message type: %s", envelope.MessageType)
	}
}

func (p *EmailProcessor) record(ctx context.Context, envelope *messaging.Envelope, tenantID, commType, invoiceUUID, customerUUID, toEmail, subject, body string) error {
	provider := models.CommunicationProviderSimulated
	status := models.CommunicationStatusSent

	if p.mailer != nil {
		provider = models.CommunicationProviderSMTP
		if err := p.mailer.Send(toEmail, subject, body); err != nil {
			// Recorded, not retried: the provider has its own retry
			// story and the log row keeps the failure visible.
			status = models.CommunicationStatusFailed
			log.Errorw("Email delivery failed",
				"feature", "email",
				"operation", commType,
				"tenant_id", tenantID,
				"correlation_id", envelope.CorrelationID,
				"to", toEmail,
				"error", err)
		}
	}

	return p.uow.Do(ctx, func(repos *repository.Repositories) error {
		entry := &models.CommunicationLog{
			TenantID:      tenantID,
			Channel:       models.CommunicationChannelEmail,
			Type:          commType,
			Status:        status,
			ToAddress:     toEmail,
			Subject:       subject,
			Provider:      provider,
			SentAt:        time.Now().UTC(),
			CorrelationID: envelope.CorrelationID,
		}

		if invoiceUUID != "" {
			invoice, err := repos.Invoice.FindByUUID(ctx, tenantID, invoiceUUID)
			if err == nil {
				entry.InvoiceID = &invoice.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice lookup failed: %w", err)
			}
		}
		if customerUUID != "" {
			customer, err := repos.Customer.FindByUUID(ctx, tenantID, customerUUID)
			if err == nil {
				entry.CustomerID = &customer.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("customer lookup failed: %w", err)
			}
		}

		if err := repos.CommunicationLog.Create(ctx, entry); err != nil {
			return fmt.Errorf("communication log insert failed: %w", err)
		}

		log.Infow("Recorded outbound email",
			"feature", "email",
			"operation", commType,
			"tenant_id", tenantID,
			"correlation_id", envelope.CorrelationID,
			"to", toEmail,
			"provider", provider,
			"status", status)
		return nil
	})
}
