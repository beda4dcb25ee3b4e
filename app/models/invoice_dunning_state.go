package models

import "time"

// InvoiceDunningState tracks where an overdue invoice stands inside its
// dunning plan. Created lazily on first evaluation, mutated only by the
// dunning processor. NextActionAt == nil means the plan is exhausted
// for this invoice; that state is terminal.
type InvoiceDunningState struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	InvoiceID         uint       `gorm:"not null;uniqueIndex" json:"invoice_id"`
	TenantID          string     `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	DunningPlanID     uint       `gorm:"not null;index" json:"dunning_plan_id"`
	CurrentStepNumber int        `gorm:"not null;default:1" json:"current_step_number"`
	NextActionAt      *time.Time `gorm:"type:timestamp;default:null;index" json:"next_action_at,omitempty"`
	LastActionAt      *time.Time `gorm:"type:timestamp;default:null" json:"last_action_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Exhausted reports whether the plan has run out of steps for this invoice.
func (s *InvoiceDunningState) Exhausted() bool {
	return s.NextActionAt == nil
}
