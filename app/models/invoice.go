package models

import "time"

// Invoice status values. A paid invoice never leaves the paid state.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusVoid      = "void"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice carries the ledger fields the payment and dunning processors
// operate on. Amounts are minor units (cents).
type Invoice struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	TenantID      string     `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	CustomerID    uint       `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	InvoiceNumber string     `gorm:"type:varchar(50);not null;index" json:"invoice_number"`
	Status        string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status" validate:"oneof=draft sent overdue paid void cancelled"`
	CurrencyCode  string     `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency_code"`
	TotalAmount   int64      `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount    int64      `gorm:"not null;default:0" json:"paid_amount"`
	DueDate       time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	PaidAt        *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BalanceDue is derived, never stored.
func (i *Invoice) BalanceDue() int64 {
	return i.TotalAmount - i.PaidAmount
}

// IsPayable reports whether a payment may be applied in the current state.
func (i *Invoice) IsPayable() bool {
	return i.Status == InvoiceStatusSent || i.Status == InvoiceStatusOverdue
}
