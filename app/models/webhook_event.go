package models

import "time"

// Webhook processing status values.
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
)

// WebhookEvent stores an externally-sourced provider event. The
// ingestion boundary creates it in received state; the webhook
// processor finalizes it. Replays re-enter processing without touching
// provider or payload.
type WebhookEvent struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UUID             string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	TenantID         string     `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Provider         string     `gorm:"type:varchar(50);not null;index" json:"provider"`
	EventType        string     `gorm:"type:varchar(100);not null" json:"event_type"`
	PayloadJSON      string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessingStatus string     `gorm:"type:varchar(20);not null;default:'received';index" json:"processing_status" validate:"oneof=received processed failed"`
	ReceivedAt       time.Time  `gorm:"type:timestamp;not null" json:"received_at"`
	ProcessedAt      *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
