package models

import "time"

const (
	CommunicationChannelEmail = "email"

	CommunicationTypeInvoice = "invoice"
	CommunicationTypeDunning = "dunning"

	CommunicationStatusSent   = "sent"
	CommunicationStatusFailed = "failed"

	CommunicationProviderSMTP      = "smtp"
	CommunicationProviderSimulated = "simulated"
)

// CommunicationLog records every outbound customer communication the
// email processor handles, whether actually delivered or simulated.
type CommunicationLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TenantID      string    `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Channel       string    `gorm:"type:varchar(20);not null" json:"channel"`
	Type          string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Status        string    `gorm:"type:varchar(20);not null" json:"status"`
	CustomerID    *uint     `gorm:"default:null;index" json:"customer_id,omitempty"`
	InvoiceID     *uint     `gorm:"default:null;index" json:"invoice_id,omitempty"`
	ToAddress     string    `gorm:"type:varchar(200);not null" json:"to_address"`
	Subject       string    `gorm:"type:varchar(255)" json:"subject"`
	Provider      string    `gorm:"type:varchar(50);not null" json:"provider"`
	SentAt        time.Time `gorm:"type:timestamp;not null" json:"sent_at"`
	CorrelationID string    `gorm:"type:varchar(64);index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
