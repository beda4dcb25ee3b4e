package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Queue names. One consumer loop runs per queue.
const (
	QueueEmailSend       = "email-send"
	QueueDunningEvaluate = "dunning-evaluate"
	QueuePaymentCommands = "payment-commands"
	QueueWebhookIngest   = "webhook-ingest"
)

// Message types. Each type uniquely determines the payload shape.
const (
	TypeInvoiceEmailRequested  = "email.invoice_requested"
	TypeDunningEmailRequested  = "email.dunning_requested"
	TypeEvaluateDunning        = "dunning.evaluate"
	TypeApplyPayment           = "payment.apply"
	TypeWebhookReceived        = "webhook.received"
	TypeWebhookReplayRequested = "webhook.replay_requested"
)

// Envelope is the wire contract wrapping every command and event with
// routing and correlation metadata. It is created by the producer at
// publish time and discarded after handling, never persisted.
type Envelope struct {
	MessageType   string    `json:"messageType"`
	PayloadJSON   string    `json:"payloadJson"`
	TenantID      string    `json:"tenantId"`
	CorrelationID string    `json:"correlationId"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}

// NewEnvelope wraps a payload for publishing, stamping the enqueue time.
func NewEnvelope(messageType, tenantID, correlationID string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", messageType, err)
	}

	return &Envelope{
		MessageType:   messageType,
		PayloadJSON:   string(data),
		TenantID:      tenantID,
		CorrelationID: correlationID,
		EnqueuedAt:    time.Now().UTC(),
	}, nil
}

var validate = validator.New()

// DecodePayload unmarshals the envelope payload into dst and validates
// it. Both failure modes are permanent: a consumer that cannot decode
// the payload for the declared type will never succeed on redelivery.
func (e *Envelope) DecodePayload(dst interface{}) error {
	if err := json.Unmarshal([]byte(e.PayloadJSON), dst); err != nil {
		return Permanent(fmt.Sprintf("failed to deserialize %s payload", e.MessageType), err)
	}
	if err := validate.Struct(dst); err != nil {
		return Permanent(fmt.Sprintf("invalid %s payload: %v", e.MessageType, err), err)
	}
	return nil
}

// ApplyPaymentCommand applies an externally collected payment to an
// invoice, exactly once per idempotency key. Amount is minor units.
type ApplyPaymentCommand struct {
	InvoiceID      string `json:"invoiceId" validate:"required,uuid4"`
	Amount         int64  `json:"amount" validate:"gt=0"`
	Currency       string `json:"currency" validate:"required,len=3"`
	IdempotencyKey string `json:"idempotencyKey" validate:"required,max=128"`
}

// EvaluateDunningCommand triggers one sweep over all overdue invoices
// of the tenant. AsOfDate is date-only, format 2006-01-02.
type EvaluateDunningCommand struct {
	AsOfDate string `json:"asOfDate" validate:"required,datetime=2006-01-02"`
}

// WebhookReceivedMessage finalizes a stored webhook event.
type WebhookReceivedMessage struct {
	WebhookEventID string `json:"webhookEventId" validate:"required,uuid4"`
	Provider       string `json:"provider" validate:"required"`
}

// WebhookReplayRequestedMessage re-runs processing for a stored webhook
// event. The requesting boundary owns the replay precondition.
type WebhookReplayRequestedMessage struct {
	WebhookEventID string `json:"webhookEventId" validate:"required,uuid4"`
}

// InvoiceEmailRequestedMessage asks the email processor to deliver an
// invoice email.
type InvoiceEmailRequestedMessage struct {
	InvoiceID string `json:"invoiceId" validate:"required,uuid4"`
	ToEmail   string `json:"toEmail" validate:"required,email"`
	Subject   string `json:"subject" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

// DunningEmailRequestedMessage asks the email processor to deliver a
// dunning reminder, tagged with the plan step that fired.
type DunningEmailRequestedMessage struct {
	InvoiceID  string `json:"invoiceId" validate:"required,uuid4"`
	CustomerID string `json:"customerId" validate:"required,uuid4"`
	StepNumber int    `json:"stepNumber" validate:"gt=0"`
	ToEmail    string `json:"toEmail" validate:"required,email"`
	Subject    string `json:"subject" validate:"required"`
	Body       string `json:"body" validate:"required"`
}
