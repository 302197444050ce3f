package controllers

import (
	"context"
	"net/http"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	"github.com/genesoft/portal-backend/internal/admin"
	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/types"
)

type adminAuthorizer interface {
	RequireAdmin(ctx context.Context, header string) (pkgAuth.AdminGrant, error)
}

type elevatedExecutor interface {
	CreateUser(ctx context.Context, scope *db.ElevatedScope, input admin.CreateUserInput) admin.CreateUserOutcome
	UpdateUsername(ctx context.Context, scope *db.ElevatedScope, input admin.UpdateUsernameInput) admin.Outcome
	UpdatePassword(ctx context.Context, scope *db.ElevatedScope, input admin.UpdatePasswordInput) admin.Outcome
	DeleteUser(ctx context.Context, scope *db.ElevatedScope, input admin.DeleteUserInput) admin.Outcome
}

// AdminUsersDeps are shared by the elevated identity endpoints.
type AdminUsersDeps struct {
	Authorizer adminAuthorizer
	DB         *db.Client
	Executor   elevatedExecutor
	Logger     *logger.Logger
}

type createUserRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    string  `json:"fullName"`
	CompanyName *string `json:"companyName"`
	LogoURL     *string `json:"logoUrl"`
	WebsiteURL  *string `json:"websiteUrl"`
}

type updateUsernameRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type updatePasswordRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type deleteUserRequest struct {
	UserID string `json:"userId"`
}

// elevate runs the admin check against the bearer credential and builds the
// elevated scope for this request only. Authentication is checked before the
// body is read.
func (d AdminUsersDeps) elevate(w http.ResponseWriter, r *http.Request) (*db.ElevatedScope, bool) {
	grant, err := d.Authorizer.RequireAdmin(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		responses.WriteError(r.Context(), d.Logger, w, err)
		return nil, false
	}
	scope, err := db.NewElevatedScope(d.DB, grant)
	if err != nil {
		responses.WriteError(r.Context(), d.Logger, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "elevated scope"))
		return nil, false
	}
	return scope, true
}

// AdminCreateUser handles POST /api/admin/create-user.
func AdminCreateUser(d AdminUsersDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := d.elevate(w, r)
		if !ok {
			return
		}

		var body createUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		outcome := d.Executor.CreateUser(r.Context(), scope, admin.CreateUserInput{
			Email:       body.Email,
			Password:    body.Password,
			FullName:    body.FullName,
			CompanyName: body.CompanyName,
			LogoURL:     body.LogoURL,
			WebsiteURL:  body.WebsiteURL,
		})
		if err := outcome.Err(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		responses.WriteActionResult(w, types.ActionResult{User: outcome.User})
	}
}

// AdminUpdateUsername handles POST /api/admin/update-username.
func AdminUpdateUsername(d AdminUsersDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := d.elevate(w, r)
		if !ok {
			return
		}

		var body updateUsernameRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		outcome := d.Executor.UpdateUsername(r.Context(), scope, admin.UpdateUsernameInput{UserID: body.UserID, Email: body.Email})
		if err := outcome.Err(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		responses.WriteActionResult(w, types.ActionResult{Message: "Username updated successfully"})
	}
}

// AdminUpdatePassword handles POST /api/admin/update-password.
func AdminUpdatePassword(d AdminUsersDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := d.elevate(w, r)
		if !ok {
			return
		}

		var body updatePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		outcome := d.Executor.UpdatePassword(r.Context(), scope, admin.UpdatePasswordInput{UserID: body.UserID, Password: body.Password})
		if err := outcome.Err(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		responses.WriteActionResult(w, types.ActionResult{Message: "Password updated successfully"})
	}
}

// AdminDeleteUser handles DELETE /api/admin/delete-user.
func AdminDeleteUser(d AdminUsersDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := d.elevate(w, r)
		if !ok {
			return
		}

		var body deleteUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		outcome := d.Executor.DeleteUser(r.Context(), scope, admin.DeleteUserInput{UserID: body.UserID})
		if err := outcome.Err(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		responses.WriteActionResult(w, types.ActionResult{Message: "User deleted successfully"})
	}
}
