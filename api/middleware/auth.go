package middleware

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type roleAuthorizer interface {
	RequireRole(ctx context.Context, header string, allowed ...enums.Role) (*auth.Principal, enums.Role, error)
}

// Auth resolves the bearer principal, reads its role, and seeds the request
// context with both. Requests without a valid credential get 401.
func Auth(authorizer roleAuthorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, role, err := authorizer.RequireRole(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal, role)
			if logg != nil {
				ctx = logg.WithActor(ctx, principal.ID.String(), string(role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
