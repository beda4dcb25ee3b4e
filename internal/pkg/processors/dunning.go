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

// DunningProcessor sweeps all overdue invoices of a tenant and advances
// the per-invoice escalation state machine, emitting reminder email
// commands as steps come due. The sweep is recomputable: running it
// twice for the same as-of date fires no step twice.
type DunningProcessor struct {
	uow    repository.UnitOfWork
	broker messaging.Broker
}

func NewDunningProcessor(uow repository.UnitOfWork, broker messaging.Broker) *DunningProcessor {
	return &DunningProcessor{uow: uow, broker: broker}
}

// Handle consumes dunning.evaluate from the dunning-evaluate queue.
func (p *DunningProcessor) Handle(ctx context.Context, envelope *messaging.Envelope) error {
	if envelope.MessageType != messaging.TypeEvaluateDunning {
		return messaging.Permanentf("unknown message type: %s", envelope.MessageType)
	}

	tenantID, ok := tenantcontext.ValidTenantID(ctx)
	if !ok {
		return messaging.Permanentf("missing tenant id")
	}

	var cmd messaging.EvaluateDunningCommand
	if err := envelope.DecodePayload(&cmd); err != nil {
		return err
	}

	asOf, err := time.ParseInLocation("2006-01-02", cmd.AsOfDate, time.UTC)
	if err != nil {
		return messaging.Permanent(fmt.Sprintf("invalid asOfDate: %s", cmd.AsOfDate), err)
	}

	return p.uow.Do(ctx, func(repos *repository.Repositories) error {
		plan, err := repos.Dunning.FindDefaultActivePlan(ctx, tenantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infow("No default dunning plan, skipping sweep",
				"feature", "dunning", "operation", "evaluate", "tenant_id", tenantID,
				"correlation_id", envelope.CorrelationID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("plan lookup failed: %w", err)
		}
		if len(plan.Steps) == 0 {
			log.Infow("Default dunning plan has no steps, skipping sweep",
				"feature", "dunning", "operation", "evaluate", "tenant_id", tenantID,
				"correlation_id", envelope.CorrelationID)
			return nil
		}

		invoices, err := repos.Invoice.FindOverdue(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("overdue invoice lookup failed: %w", err)
		}

		processed := 0
		for i := range invoices {
			invoice := &invoices[i]

			state, err := repos.Dunning.FindStateByInvoiceID(ctx, invoice.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				firstStep := plan.Steps[0]
				nextAction := stepDue(invoice.DueDate, firstStep.DaysAfterDue)
				state = &models.InvoiceDunningState{
					InvoiceID:         invoice.ID,
					TenantID:          tenantID,
					DunningPlanID:     plan.ID,
					CurrentStepNumber: firstStep.StepNumber,
					NextActionAt:      &nextAction,
				}
				if err := repos.Dunning.CreateState(ctx, state); err != nil {
					return fmt.Errorf("dunning state insert failed: %w", err)
				}
			} else if err != nil {
				return fmt.Errorf("dunning state lookup failed: %w", err)
			}

			if state.NextActionAt == nil || dateOf(*state.NextActionAt).After(asOf) {
				continue
			}

			currentStep := stepByNumber(plan.Steps, state.CurrentStepNumber)
			if currentStep == nil {
				// Step list changed under a live state; nothing sane to fire
				continue
			}

			if invoice.Customer == nil {
				log.Warnw("Overdue invoice has no customer, skipping reminder",
					"feature", "dunning", "operation", "evaluate", "tenant_id", tenantID,
					"invoice_id", invoice.UUID)
				continue
			}

			if err := p.publishReminder(ctx, envelope, tenantID, invoice, currentStep); err != nil {
				return fmt.Errorf("reminder publish failed: %w", err)
			}

			now := time.Now().UTC()
			state.LastActionAt = &now

			if nextStep := stepByNumber(plan.Steps, state.CurrentStepNumber+1); nextStep != nil {
				state.CurrentStepNumber = nextStep.StepNumber
				nextAction := stepDue(invoice.DueDate, nextStep.DaysAfterDue)
				state.NextActionAt = &nextAction
			} else {
				// Plan exhausted for this invoice, terminal
				state.NextActionAt = nil
			}

			if err := repos.Dunning.SaveState(ctx, state); err != nil {
				return fmt.Errorf("dunning state update failed: %w", err)
			}

			data, _ := json.Marshal(map[string]interface{}{
				"invoice_number": invoice.InvoiceNumber,
				"step":           currentStep.StepNumber,
				"plan_id":        plan.UUID,
			})
			if err := repos.AuditLog.Create(ctx, &models.AuditLog{
				TenantID:      tenantID,
				EntityType:    "invoice",
				EntityID:      invoice.UUID,
				Action:        models.AuditActionDunningStepExecuted,
				DataJSON:      string(data),
				CorrelationID: envelope.CorrelationID,
				OccurredAt:    now,
			}); err != nil {
				return fmt.Errorf("audit insert failed: %w", err)
			}

			processed++
		}

		log.Infow("Dunning evaluation complete",
			"feature", "dunning",
			"operation", "evaluate",
			"tenant_id", tenantID,
			"correlation_id", envelope.CorrelationID,
			"as_of", cmd.AsOfDate,
			"processed", processed)
		return nil
	})
}

func (p *DunningProcessor) publishReminder(ctx context.Context, envelope *messaging.Envelope, tenantID string, invoice *models.Invoice, step *models.DunningStep) error {
	payload := messaging.DunningEmailRequestedMessage{
		InvoiceID:  invoice.UUID,
		CustomerID: invoice.Customer.UUID,
		StepNumber: step.StepNumber,
		ToEmail:    invoice.Customer.Email,
		Subject:    fmt.Sprintf("Payment Reminder: Invoice %s (Step %d)", invoice.InvoiceNumber, step.StepNumber),
		Body: fmt.Sprintf("This is a reminder that invoice %s for %.2f %s is overdue.",
			invoice.InvoiceNumber, float64(invoice.BalanceDue())/100, invoice.CurrencyCode),
	}

	out, err := messaging.NewEnvelope(messaging.TypeDunningEmailRequested, tenantID, envelope.CorrelationID, payload)
	if err != nil {
		return err
	}
	return p.broker.Publish(ctx, messaging.QueueEmailSend, out)
}

// stepDue computes the action time for a step: midnight UTC of the due
// date plus the step offset.
func stepDue(dueDate time.Time, daysAfterDue int) time.Time {
	return dateOf(dueDate).AddDate(0, 0, daysAfterDue)
}

// dateOf truncates to midnight UTC of the timestamp's UTC date.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func stepByNumber(steps []models.DunningStep, number int) *models.DunningStep {
	for i := range steps {
		if steps[i].StepNumber == number {
			return &steps[i]
		}
	}
	return nil
}
