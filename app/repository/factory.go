package repository

import (
	"context"

	"gorm.io/gorm"
)

// NewRepositories builds all repositories over one DB handle. The
// handle may be a transaction.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Invoice:          NewInvoiceRepository(db),
		Customer:         NewCustomerRepository(db),
		Payment:          NewPaymentRepository(db),
		IdempotencyKey:   NewIdempotencyKeyRepository(db),
		Dunning:          NewDunningRepository(db),
		WebhookEvent:     NewWebhookEventRepository(db),
		AuditLog:         NewAuditLogRepository(db),
		CommunicationLog: NewCommunicationLogRepository(db),
	}
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over the given GORM handle.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

// Do wraps fn in a DB transaction. All repository calls inside fn see
// the same uncommitted state; the commit is the single durability
// point of a handler invocation.
func (u *gormUnitOfWork) Do(ctx context.Context, fn func(repos *Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
