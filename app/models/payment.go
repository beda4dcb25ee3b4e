package models

import "time"

const (
	PaymentMethodExternal = "external"

	PaymentStatusSucceeded = "succeeded"
)

// Payment records a single applied payment against an invoice.
// Amounts are minor units (cents).
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	TenantID      string    `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	InvoiceID     uint      `gorm:"not null;index" json:"invoice_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	CurrencyCode  string    `gorm:"type:varchar(3);not null" json:"currency_code"`
	Method        string    `gorm:"type:varchar(20);not null;default:'external'" json:"method"`
	Status        string    `gorm:"type:varchar(20);not null;default:'succeeded'" json:"status"`
	AppliedAt     time.Time `gorm:"type:timestamp;not null" json:"applied_at"`
	CorrelationID string    `gorm:"type:varchar(64);index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
