package middleware

import (
	"context"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxRole      contextKey = "actor_role"
)

// PrincipalFromContext returns the principal resolved by Auth or Gate.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*auth.Principal); ok {
		return v
	}
	return nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// UserIDFromContext returns the principal ID as a string, or "".
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.ID.String()
	}
	return ""
}

// WithPrincipal injects the principal and its current role into the context.
func WithPrincipal(ctx context.Context, principal *auth.Principal, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipal, principal)
	return context.WithValue(ctx, ctxRole, role)
}
