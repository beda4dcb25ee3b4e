package tenantcontext

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// With binds a tenant UUID to the context. Every store read or write
// downstream of a message receipt is scoped by this value.
func With(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// TenantID returns the tenant bound to the context, if any.
func TenantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ValidTenantID returns the bound tenant only when it parses as a UUID.
func ValidTenantID(ctx context.Context) (string, bool) {
	id, ok := TenantID(ctx)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
