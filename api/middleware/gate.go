package middleware

import (
	"net/http"

	"github.com/genesoft/portal-backend/internal/authz"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type pageGate interface {
	Decide(r *http.Request) authz.Decision
}

// Gate applies the page gate. Denied navigation is redirected, never
// answered with an error page. Non-canonical paths are redirected to their
// cleaned form first so pages always render the path that was checked.
func Gate(gate pageGate, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if canonical, ok := authz.CanonicalPath(r.URL.Path); !ok {
				if r.URL.RawQuery != "" {
					canonical += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, canonical, http.StatusTemporaryRedirect)
				return
			}

			decision := gate.Decide(r)
			if !decision.Allow {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"route_class": string(decision.Class),
						"redirect_to": decision.RedirectTo,
					})
					logg.Info(ctx, "gate.redirect")
				}
				http.Redirect(w, r, decision.RedirectTo, http.StatusTemporaryRedirect)
				return
			}

			ctx := r.Context()
			if decision.Principal != nil {
				ctx = WithPrincipal(ctx, decision.Principal, decision.Role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
