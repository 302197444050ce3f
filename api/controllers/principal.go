package controllers

import (
	"net/http"

	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/pkg/auth"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
)

func requirePrincipal(r *http.Request) (auth.Principal, error) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized")
	}
	return *principal, nil
}
