package auth

import (
	"context"

	"github.com/premiumgate/premiumgate/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const adminContextKey contextKey = "admin_context"

// ContextWithAdmin adds AdminContext to the context.
func ContextWithAdmin(ctx context.Context, admin *model.AdminContext) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// AdminFromContext retrieves AdminContext from the context, or nil.
func AdminFromContext(ctx context.Context) *model.AdminContext {
	admin, ok := ctx.Value(adminContextKey).(*model.AdminContext)
	if !ok {
		return nil
	}
	return admin
}
