package controllers

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type activityReader interface {
	ListRecent(ctx context.Context, principal auth.Principal, limit int) ([]audit.Record, error)
}

// AdminActivityLogs handles GET /api/admin/activity-logs?limit=.
func AdminActivityLogs(svc activityReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", audit.DefaultListLimit, 1, audit.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListRecent(r.Context(), principal, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}
