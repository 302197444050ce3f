package controllers

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/internal/dashboard"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type statsService interface {
	Stats(ctx context.Context, principal auth.Principal, role enums.Role) (*dashboard.Stats, error)
}

// DashboardStats handles GET /api/dashboard/stats.
func DashboardStats(svc statsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), principal, middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
