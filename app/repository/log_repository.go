package repository

import (
	"context"

	"gorm.io/gorm"

	"billhive/app/models"
)

type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates an audit trail repository backed by GORM.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

type gormCommunicationLogRepository struct {
	db *gorm.DB
}

// NewCommunicationLogRepository creates a communication log repository backed by GORM.
func NewCommunicationLogRepository(db *gorm.DB) CommunicationLogRepository {
	return &gormCommunicationLogRepository{db: db}
}

func (r *gormCommunicationLogRepository) Create(ctx context.Context, entry *models.CommunicationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
