package repository

import (
	"context"

	"gorm.io/gorm"

	"billhive/app/models"
)

type gormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a customer repository backed by GORM.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &gormCustomerRepository{db: db}
}

func (r *gormCustomerRepository) FindByUUID(ctx context.Context, tenantID, uuid string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND uuid = ?", tenantID, uuid).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
