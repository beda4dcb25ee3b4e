package models

import "time"

// Audit actions written by the processors.
const (
	AuditActionPaymentApplied      = "payment.applied"
	AuditActionDunningStepExecuted = "dunning.step_executed"
	AuditActionWebhookProcessed    = "webhook.processed"
	AuditActionWebhookReplayed     = "webhook.replayed"
)

// AuditLog is an append-only trail of state mutations, written in the
// same transaction as the mutation it describes.
type AuditLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TenantID      string    `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	EntityType    string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID      string    `gorm:"type:varchar(64);not null;index" json:"entity_id"`
	Action        string    `gorm:"type:varchar(100);not null;index" json:"action"`
	DataJSON      string    `gorm:"type:longtext" json:"data_json"`
	CorrelationID string    `gorm:"type:varchar(64);index" json:"correlation_id"`
	OccurredAt    time.Time `gorm:"type:timestamp;not null" json:"occurred_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
