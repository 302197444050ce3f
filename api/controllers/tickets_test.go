package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/internal/tickets"
	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
)

type stubTicketService struct {
	listRole   enums.Role
	listParams tickets.ListParams
	created    tickets.CreateInput
	updated    tickets.UpdateInput
	deleted    uuid.UUID
}

func (s *stubTicketService) Create(_ context.Context, _ pkgAuth.Principal, input tickets.CreateInput) (*tickets.TicketDTO, error) {
	s.created = input
	return &tickets.TicketDTO{ID: uuid.New(), Subject: input.Subject}, nil
}

func (s *stubTicketService) List(_ context.Context, _ pkgAuth.Principal, role enums.Role, params tickets.ListParams) (*tickets.ListResult, error) {
	s.listRole = role
	s.listParams = params
	return &tickets.ListResult{Items: []tickets.TicketDTO{}}, nil
}

func (s *stubTicketService) Update(_ context.Context, _ pkgAuth.Principal, _ uuid.UUID, input tickets.UpdateInput) (*tickets.TicketDTO, error) {
	s.updated = input
	return &tickets.TicketDTO{}, nil
}

func (s *stubTicketService) Delete(_ context.Context, _ pkgAuth.Principal, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func withCaller(req *http.Request, role enums.Role) *http.Request {
	principal := &pkgAuth.Principal{ID: uuid.New(), Email: "c@genesoft.internal"}
	return req.WithContext(middleware.WithPrincipal(req.Context(), principal, role))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTicketList(t *testing.T) {
	svc := &stubTicketService{}

	t.Run("missing principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		TicketList(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("passes role and paging", func(t *testing.T) {
		req := withCaller(httptest.NewRequest(http.MethodGet, "/api/tickets?status=open&limit=10&cursor=abc", nil), enums.RoleClient)
		rec := httptest.NewRecorder()
		TicketList(svc, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if svc.listRole != enums.RoleClient || svc.listParams.Limit != 10 || svc.listParams.Cursor != "abc" {
			t.Fatalf("unexpected list call role=%s params=%+v", svc.listRole, svc.listParams)
		}
		if svc.listParams.Status == nil || *svc.listParams.Status != enums.TicketStatusOpen {
			t.Fatalf("expected open status filter, got %+v", svc.listParams.Status)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		req := withCaller(httptest.NewRequest(http.MethodGet, "/api/tickets?status=lost", nil), enums.RoleStaff)
		rec := httptest.NewRecorder()
		TicketList(svc, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTicketCreateAndUpdate(t *testing.T) {
	svc := &stubTicketService{}

	req := withCaller(httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(`{"subject":"  Broken drill ","description":"It stopped","priority":"high"}`)), enums.RoleClient)
	rec := httptest.NewRecorder()
	TicketCreate(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Subject != "Broken drill" || svc.created.Priority == nil || *svc.created.Priority != enums.TicketPriorityHigh {
		t.Fatalf("unexpected create input %+v", svc.created)
	}

	ticketID := uuid.New()
	req = withCaller(httptest.NewRequest(http.MethodPatch, "/api/tickets/"+ticketID.String(), strings.NewReader(`{"status":"resolved"}`)), enums.RoleStaff)
	req = withParam(req, "ticketId", ticketID.String())
	rec = httptest.NewRecorder()
	TicketUpdate(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updated.Status == nil || *svc.updated.Status != enums.TicketStatusResolved || svc.updated.Priority != nil {
		t.Fatalf("unexpected update input %+v", svc.updated)
	}

	req = withCaller(httptest.NewRequest(http.MethodDelete, "/api/tickets/"+ticketID.String(), nil), enums.RoleAdmin)
	req = withParam(req, "ticketId", ticketID.String())
	rec = httptest.NewRecorder()
	TicketDelete(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || svc.deleted != ticketID {
		t.Fatalf("unexpected delete result %d %s", rec.Code, svc.deleted)
	}
}
