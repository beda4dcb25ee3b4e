package repository

import (
	"context"

	"billhive/app/models"
)

// InvoiceRepository provides invoice reads and writes. All lookups are
// tenant-scoped.
type InvoiceRepository interface {
	FindByUUID(ctx context.Context, tenantID, uuid string) (*models.Invoice, error)
	FindOverdue(ctx context.Context, tenantID string) ([]models.Invoice, error)
	Save(ctx context.Context, invoice *models.Invoice) error
}

// CustomerRepository resolves invoice recipients.
type CustomerRepository interface {
	FindByUUID(ctx context.Context, tenantID, uuid string) (*models.Customer, error)
}

// PaymentRepository appends applied payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
}

// IdempotencyKeyRepository is the exactly-once ledger. Find returns
// gorm.ErrRecordNotFound when the key has not been applied yet.
type IdempotencyKeyRepository interface {
	Find(ctx context.Context, tenantID, operation, keyValue string) (*models.IdempotencyKey, error)
	Create(ctx context.Context, key *models.IdempotencyKey) error
}

// DunningRepository serves the evaluator: the plan is read-only, the
// per-invoice state is owned by the evaluator.
type DunningRepository interface {
	FindDefaultActivePlan(ctx context.Context, tenantID string) (*models.DunningPlan, error)
	FindStateByInvoiceID(ctx context.Context, invoiceID uint) (*models.InvoiceDunningState, error)
	CreateState(ctx context.Context, state *models.InvoiceDunningState) error
	SaveState(ctx context.Context, state *models.InvoiceDunningState) error
}

// WebhookEventRepository finalizes externally-sourced events.
type WebhookEventRepository interface {
	FindByUUID(ctx context.Context, tenantID, uuid string) (*models.WebhookEvent, error)
	Save(ctx context.Context, event *models.WebhookEvent) error
}

// AuditLogRepository appends to the audit trail.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// CommunicationLogRepository records outbound customer communication.
type CommunicationLogRepository interface {
	Create(ctx context.Context, entry *models.CommunicationLog) error
}

// Repositories bundles all repository instances over one DB handle.
type Repositories struct {
	Invoice          InvoiceRepository
	Customer         CustomerRepository
	Payment          PaymentRepository
	IdempotencyKey   IdempotencyKeyRepository
	Dunning          DunningRepository
	WebhookEvent     WebhookEventRepository
	AuditLog         AuditLogRepository
	CommunicationLog CommunicationLogRepository
}

// UnitOfWork runs fn against repositories bound to a single
// transaction. fn returning nil commits; any error rolls back. One
// committed transaction per handler invocation is the concurrency
// discipline of the whole worker.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos *Repositories) error) error
}
