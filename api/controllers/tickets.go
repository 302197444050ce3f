package controllers

import (
	"net/http"
	"strings"

	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	"github.com/genesoft/portal-backend/internal/tickets"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/pagination"
)

type createTicketRequest struct {
	Subject     string  `json:"subject" validate:"required,max=200"`
	Description string  `json:"description" validate:"required,max=5000"`
	Priority    *string `json:"priority"`
}

type updateTicketRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

func optionalString(raw *string) string {
	if raw == nil {
		return ""
	}
	return *raw
}

// TicketList handles GET /api/tickets?status=&limit=&cursor=.
func TicketList(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := validators.ParseQueryEnum(r, "status", enums.ParseTicketStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), principal, middleware.RoleFromContext(r.Context()), tickets.ListParams{
			Status: status,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// TicketCreate handles POST /api/tickets.
func TicketCreate(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createTicketRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := validators.ParseOptionalEnum(optionalString(body.Priority), "priority", enums.ParseTicketPriority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), principal, tickets.CreateInput{
			Subject:     validators.SanitizeString(body.Subject, 200),
			Description: strings.TrimSpace(body.Description),
			Priority:    priority,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// TicketUpdate handles PATCH /api/tickets/{ticketId}.
func TicketUpdate(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := validators.ParseUUIDParam(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateTicketRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseOptionalEnum(optionalString(body.Status), "status", enums.ParseTicketStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := validators.ParseOptionalEnum(optionalString(body.Priority), "priority", enums.ParseTicketPriority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), principal, ticketID, tickets.UpdateInput{Status: status, Priority: priority})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// TicketDelete handles DELETE /api/tickets/{ticketId}.
func TicketDelete(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := validators.ParseUUIDParam(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, ticketID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
