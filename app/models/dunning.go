package models

import "time"

// DunningPlan is an ordered escalation schedule for overdue invoices.
// Exactly one plan per tenant is flagged default+active at a time;
// that invariant is enforced by the admin surface, the evaluator only
// reads it.
type DunningPlan struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UUID      string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	TenantID  string        `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name      string        `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	IsDefault bool          `gorm:"default:false;index" json:"is_default"`
	IsActive  bool          `gorm:"default:true;index" json:"is_active"`
	Steps     []DunningStep `gorm:"foreignKey:DunningPlanID" json:"steps,omitempty"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// DunningStep is one reminder within a plan. StepNumber is unique per
// plan and ascending; DaysAfterDue counts from the invoice due date.
type DunningStep struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DunningPlanID uint      `gorm:"not null;index:ux_dunning_steps_plan_step,unique,priority:1" json:"dunning_plan_id"`
	StepNumber    int       `gorm:"not null;index:ux_dunning_steps_plan_step,unique,priority:2" json:"step_number" validate:"gt=0"`
	DaysAfterDue  int       `gorm:"not null" json:"days_after_due" validate:"gte=0"`
	TemplateKey   string    `gorm:"type:varchar(100);not null" json:"template_key"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
