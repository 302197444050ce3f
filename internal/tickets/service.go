package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ticketNotFound = "ticket not found"

// Service manages support tickets.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*TicketDTO, error)
	List(ctx context.Context, principal auth.Principal, role enums.Role, params ListParams) (*ListResult, error)
	Update(ctx context.Context, principal auth.Principal, ticketID uuid.UUID, input UpdateInput) (*TicketDTO, error)
	Delete(ctx context.Context, principal auth.Principal, ticketID uuid.UUID) error
}

// CreateInput is a new ticket from a client.
type CreateInput struct {
	Subject     string
	Description string
	Priority    *enums.TicketPriority
}

// UpdateInput carries the triage fields staff may change.
type UpdateInput struct {
	Status   *enums.TicketStatus
	Priority *enums.TicketPriority
}

// ListParams pages through tickets.
type ListParams struct {
	Status *enums.TicketStatus
	Limit  int
	Cursor string
}

// ListResult is one page of tickets.
type ListResult struct {
	Items  []TicketDTO `json:"items"`
	Cursor string      `json:"cursor,omitempty"`
}

// TicketDTO is the API shape of a ticket.
type TicketDTO struct {
	ID          uuid.UUID            `json:"id"`
	ClientID    uuid.UUID            `json:"clientId"`
	Subject     string               `json:"subject"`
	Description string               `json:"description"`
	Status      enums.TicketStatus   `json:"status"`
	Priority    enums.TicketPriority `json:"priority"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func toDTO(t *models.Ticket) TicketDTO {
	return TicketDTO{
		ID:          t.ID,
		ClientID:    t.ClientID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type activityLogger interface {
	LogActivity(ctx context.Context, actor *auth.Principal, entry audit.Entry) <-chan error
}

type service struct {
	db    *db.Client
	audit activityLogger
	now   func() time.Time
}

// NewService constructs the ticket service.
func NewService(client *db.Client, auditLogger activityLogger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if auditLogger == nil {
		return nil, fmt.Errorf("audit logger is required")
	}
	return &service{db: client, audit: auditLogger, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*TicketDTO, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and description are required")
	}
	priority := enums.TicketPriorityMedium
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		priority = *input.Priority
	}

	now := s.now()
	ticket := &models.Ticket{
		ClientID:    principal.ID,
		Subject:     subject,
		Description: description,
		Status:      enums.TicketStatusOpen,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.run(ctx, principal, func(repo *Repository) error {
		return repo.Create(ctx, ticket)
	}); err != nil {
		return nil, translate(err, "create ticket")
	}

	s.record(ctx, principal, enums.LogActionCreateTicket, ticket.ID, map[string]any{
		"subject":  ticket.Subject,
		"priority": string(ticket.Priority),
	})
	dto := toDTO(ticket)
	return &dto, nil
}

// List shows clients their own tickets and staff or admins every ticket.
func (s *service) List(ctx context.Context, principal auth.Principal, role enums.Role, params ListParams) (*ListResult, error) {
	query := listQuery{Status: params.Status, Limit: params.Limit}
	if role == enums.RoleClient {
		id := principal.ID
		query.ClientID = &id
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	var rows []models.Ticket
	if err := s.run(ctx, principal, func(repo *Repository) error {
		var err error
		rows, err = repo.List(ctx, query)
		return err
	}); err != nil {
		return nil, translate(err, "list tickets")
	}

	page, next := pagination.Split(rows, params.Limit, func(t models.Ticket) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	result := &ListResult{Items: make([]TicketDTO, 0, len(page))}
	for i := range page {
		result.Items = append(result.Items, toDTO(&page[i]))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, principal auth.Principal, ticketID uuid.UUID, input UpdateInput) (*TicketDTO, error) {
	fields := map[string]any{}
	details := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		fields["status"] = *input.Status
		details["status"] = string(*input.Status)
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		fields["priority"] = *input.Priority
		details["priority"] = string(*input.Priority)
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	fields["updated_at"] = s.now()

	var ticket *models.Ticket
	if err := s.run(ctx, principal, func(repo *Repository) error {
		rows, err := repo.UpdateFields(ctx, ticketID, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, ticketNotFound)
		}
		ticket, err = repo.FindByID(ctx, ticketID)
		return err
	}); err != nil {
		return nil, translate(err, "update ticket")
	}

	s.record(ctx, principal, enums.LogActionUpdateTicket, ticketID, details)
	dto := toDTO(ticket)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, principal auth.Principal, ticketID uuid.UUID) error {
	var ticket *models.Ticket
	if err := s.run(ctx, principal, func(repo *Repository) error {
		var err error
		ticket, err = repo.FindByID(ctx, ticketID)
		if err != nil {
			return err
		}
		_, err = repo.Delete(ctx, ticketID)
		return err
	}); err != nil {
		return translate(err, "delete ticket")
	}

	s.record(ctx, principal, enums.LogActionDeleteTicket, ticketID, map[string]any{
		"subject": ticket.Subject,
	})
	return nil
}

func (s *service) run(ctx context.Context, principal auth.Principal, fn func(repo *Repository) error) error {
	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}
	return scope.Run(ctx, func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (s *service) record(ctx context.Context, principal auth.Principal, action enums.LogAction, id uuid.UUID, details map[string]any) {
	entityID := id.String()
	s.audit.LogActivity(ctx, &principal, audit.Entry{
		Action:     action,
		EntityType: enums.EntityTypeTicket,
		EntityID:   &entityID,
		Details:    details,
	})
}

func translate(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, ticketNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
