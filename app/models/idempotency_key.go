package models

import "time"

// Operation names recorded in the idempotency ledger.
const (
	IdempotencyOperationPayment = "payment"
)

// IdempotencyKey is a per-tenant, per-operation record of keys already
// applied. Rows are created exactly once at the moment a mutation is
// first applied, never updated, never deleted. The unique index is the
// cross-instance dedup guarantee: a second writer racing past the
// lookup fails its commit on this constraint.
type IdempotencyKey struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"type:varchar(36);not null;index:ux_idempotency_keys_scope,unique,priority:1" json:"tenant_id"`
	Operation string    `gorm:"type:varchar(50);not null;index:ux_idempotency_keys_scope,unique,priority:2" json:"operation"`
	KeyValue  string    `gorm:"type:varchar(128);not null;index:ux_idempotency_keys_scope,unique,priority:3" json:"key_value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
