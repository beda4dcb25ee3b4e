package repository

import (
	"context"

	"gorm.io/gorm"

	"billhive/app/models"
)

type gormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates an invoice repository backed by GORM.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &gormInvoiceRepository{db: db}
}

func (r *gormInvoiceRepository) FindByUUID(ctx context.Context, tenantID, uuid string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND uuid = ?", tenantID, uuid).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormInvoiceRepository) FindOverdue(ctx context.Context, tenantID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("tenant_id = ? AND status = ?", tenantID, models.InvoiceStatusOverdue).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *gormInvoiceRepository) Save(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}
