package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db/models"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
)

const missingCredentials = "missing credentials"

type identityLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

type sessionLookup interface {
	Lookup(ctx context.Context, accessID string) (uuid.UUID, bool, error)
}

// ResolverParams bundles the dependencies of the identity resolver.
type ResolverParams struct {
	JWTConfig  config.JWTConfig
	CookieName string
	Sessions   sessionLookup
	Identities identityLookup
}

// Resolver turns a presented credential into a verified Principal. It never
// writes anything.
type Resolver struct {
	jwtCfg     config.JWTConfig
	cookieName string
	sessions   sessionLookup
	identities identityLookup
}

// NewResolver constructs a resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session lookup is required")
	}
	if params.Identities == nil {
		return nil, fmt.Errorf("identity lookup is required")
	}
	if strings.TrimSpace(params.CookieName) == "" {
		return nil, fmt.Errorf("session cookie name is required")
	}
	return &Resolver{
		jwtCfg:     params.JWTConfig,
		cookieName: params.CookieName,
		sessions:   params.Sessions,
		identities: params.Identities,
	}, nil
}

// ResolveFromSession reads the access token carried by the session cookie.
// Page requests use this form.
func (r *Resolver) ResolveFromSession(req *http.Request) (*pkgAuth.Principal, error) {
	cookie, err := req.Cookie(r.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, missingCredentials)
	}
	return r.resolve(req.Context(), cookie.Value)
}

// ResolveFromBearer verifies a token taken from an Authorization header.
// API handlers use this form.
func (r *Resolver) ResolveFromBearer(ctx context.Context, token string) (*pkgAuth.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, missingCredentials)
	}
	return r.resolve(ctx, token)
}

func (r *Resolver) resolve(ctx context.Context, token string) (*pkgAuth.Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(r.jwtCfg, strings.TrimSpace(token))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	userID, ok, err := r.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "validate session")
	}
	if !ok || userID != claims.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}

	identity, err := r.identities.Lookup(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "identity unavailable")
	}

	return &pkgAuth.Principal{
		ID:     identity.ID,
		Email:  identity.Email,
		Claims: claims,
	}, nil
}

// BearerToken extracts the token from an Authorization header value. A bare
// token without the scheme is accepted.
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	switch {
	case len(fields) == 1 && !strings.EqualFold(fields[0], "bearer"):
		return fields[0], nil
	case len(fields) == 2 && strings.EqualFold(fields[0], "bearer"):
		return fields[1], nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, missingCredentials)
	}
}
