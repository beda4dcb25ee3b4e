package models

import "time"

// Customer is the invoice recipient within a tenant.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	TenantID  string    `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Email     string    `gorm:"type:varchar(200);not null" json:"email" validate:"required,email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
