package controllers

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/internal/auth"
	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type activityLogger interface {
	LogActivity(ctx context.Context, actor *pkgAuth.Principal, entry audit.Entry) <-chan error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthLogin signs the caller in, sets the session cookie, and records the login.
func AuthLogin(svc auth.Service, auditLogger activityLogger, cookieCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, cookieCfg, result.AccessToken, result.ExpiresAt)

		if auditLogger != nil {
			userID := result.User.ID.String()
			principal := result.Principal
			auditLogger.LogActivity(r.Context(), &principal, audit.Entry{
				Action:     enums.LogActionLogin,
				EntityType: enums.EntityTypeUser,
				EntityID:   &userID,
			})
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the presented token and clears the
// cookie. The cookie is cleared even when revocation fails.
func AuthLogout(svc auth.Service, cookieCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearSessionCookie(w, cookieCfg)

		token, err := auth.BearerToken(sessionToken(r, cookieCfg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh rotates the refresh token and issues a new access token.
func AuthRefresh(svc auth.Service, cookieCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := auth.BearerToken(sessionToken(r, cookieCfg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), token, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, cookieCfg, pair.AccessToken, pair.ExpiresAt)
		responses.WriteSuccess(w, pair)
	}
}
