package controllers

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type profileService interface {
	GetOwn(ctx context.Context, principal auth.Principal) (*profiles.View, error)
	UpdateOwn(ctx context.Context, principal auth.Principal, input profiles.UpdateOwnInput) (*profiles.View, error)
}

type updateProfileRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,max=200"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=200"`
}

// ProfileMe handles GET /api/profile/me.
func ProfileMe(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetOwn(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ProfileUpdateMe handles PATCH /api/profile/me. Only the caller's own
// display fields can change; role and email are not accepted.
func ProfileUpdateMe(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateOwn(r.Context(), principal, profiles.UpdateOwnInput{
			FullName:    sanitizePresent(body.FullName, 200),
			CompanyName: sanitizePresent(body.CompanyName, 200),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// sanitizePresent cleans a field the caller sent; absent fields stay nil so
// they are left unchanged.
func sanitizePresent(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*value, maxLen)
	return &cleaned
}
