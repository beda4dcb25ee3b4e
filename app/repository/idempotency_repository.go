package repository

import (
	"context"

	"gorm.io/gorm"

	"billhive/app/models"
)

type gormIdempotencyKeyRepository struct {
	db *gorm.DB
}

// NewIdempotencyKeyRepository creates an idempotency ledger backed by GORM.
func NewIdempotencyKeyRepository(db *gorm.DB) IdempotencyKeyRepository {
	return &gormIdempotencyKeyRepository{db: db}
}

func (r *gormIdempotencyKeyRepository) Find(ctx context.Context, tenantID, operation, keyValue string) (*models.IdempotencyKey, error) {
	var key models.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND operation = ? AND key_value = ?", tenantID, operation, keyValue).
		First(&key).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Create inserts the key row. The unique index on
// (tenant_id, operation, key_value) makes the losing writer of a
// concurrent duplicate fail its commit; callers treat that commit
// failure as transient and dedupe on redelivery.
func (r *gormIdempotencyKeyRepository) Create(ctx context.Context, key *models.IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}
