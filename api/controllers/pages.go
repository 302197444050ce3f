package controllers

import (
	"net/http"

	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
)

// PageContext is what the page renderer learns about the caller. It is empty
// on public pages.
type PageContext struct {
	Path     string     `json:"path"`
	UserID   string     `json:"userId,omitempty"`
	Username string     `json:"username,omitempty"`
	Role     enums.Role `json:"role,omitempty"`
}

// PageRenderer draws a page. Layout and content live outside this service.
type PageRenderer interface {
	Render(w http.ResponseWriter, r *http.Request, page PageContext) error
}

// JSONPageRenderer hands the page context to a front-end shell as JSON.
type JSONPageRenderer struct{}

func (JSONPageRenderer) Render(w http.ResponseWriter, _ *http.Request, page PageContext) error {
	responses.WriteSuccess(w, page)
	return nil
}

// Page renders the requested path. It runs behind middleware.Gate, so any
// principal in the context has already passed the route-class check.
func Page(renderer PageRenderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := PageContext{Path: r.URL.Path}
		if principal := middleware.PrincipalFromContext(r.Context()); principal != nil {
			page.UserID = principal.ID.String()
			page.Username = principal.Username()
			page.Role = middleware.RoleFromContext(r.Context())
		}
		if err := renderer.Render(w, r, page); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}
