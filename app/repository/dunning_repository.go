package repository

import (
	"context"

	"gorm.io/gorm"

	"billhive/app/models"
)

type gormDunningRepository struct {
	db *gorm.DB
}

// NewDunningRepository creates a dunning repository backed by GORM.
func NewDunningRepository(db *gorm.DB) DunningRepository {
	return &gormDunningRepository{db: db}
}

func (r *gormDunningRepository) FindDefaultActivePlan(ctx context.Context, tenantID string) (*models.DunningPlan, error) {
	var plan models.DunningPlan
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Where("tenant_id = ? AND is_default = ? AND is_active = ?", tenantID, true, true).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormDunningRepository) FindStateByInvoiceID(ctx context.Context, invoiceID uint) (*models.InvoiceDunningState, error) {
	var state models.InvoiceDunningState
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *gormDunningRepository) CreateState(ctx context.Context, state *models.InvoiceDunningState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

func (r *gormDunningRepository) SaveState(ctx context.Context, state *models.InvoiceDunningState) error {
	return r.db.WithContext(ctx).Save(state).Error
}
