package authz

import (
	"context"
	"fmt"
	"slices"

	authsvc "github.com/genesoft/portal-backend/internal/auth"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
)

type bearerResolver interface {
	ResolveFromBearer(ctx context.Context, token string) (*auth.Principal, error)
}

// Authorizer performs the handler-level checks for API routes. Every call
// resolves the principal and reads the role again.
type Authorizer struct {
	resolver bearerResolver
	roles    roleStore
}

// NewAuthorizer constructs an API authorizer.
func NewAuthorizer(resolver bearerResolver, roles roleStore) (*Authorizer, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role store is required")
	}
	return &Authorizer{resolver: resolver, roles: roles}, nil
}

// Authenticate verifies the Authorization header value.
func (a *Authorizer) Authenticate(ctx context.Context, header string) (*auth.Principal, error) {
	token, err := authsvc.BearerToken(header)
	if err != nil {
		return nil, err
	}
	principal, err := a.resolver.ResolveFromBearer(ctx, token)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unauthorized")
	}
	return principal, nil
}

// RequireRole authenticates the caller and checks their current role against
// the allowed set. A role lookup failure is a denial.
func (a *Authorizer) RequireRole(ctx context.Context, header string, allowed ...enums.Role) (*auth.Principal, enums.Role, error) {
	principal, err := a.Authenticate(ctx, header)
	if err != nil {
		return nil, "", err
	}
	role, err := a.roles.GetRole(ctx, *principal)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "forbidden")
	}
	if len(allowed) > 0 && !slices.Contains(allowed, role) {
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}
	return principal, role, nil
}

// RequireAdmin is the check that precedes every elevated action. The grant
// it returns is the only way a handler can build an elevated scope.
func (a *Authorizer) RequireAdmin(ctx context.Context, header string) (auth.AdminGrant, error) {
	principal, role, err := a.RequireRole(ctx, header, enums.RoleAdmin)
	if err != nil {
		return auth.AdminGrant{}, err
	}
	grant, err := auth.GrantAdmin(*principal, role)
	if err != nil {
		return auth.AdminGrant{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "forbidden")
	}
	return grant, nil
}
