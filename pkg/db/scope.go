package db

import (
	"context"
	"fmt"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SessionScope runs work as the signed-in principal. Row level security
// policies keyed on request.jwt.claim.sub apply to everything it executes.
type SessionScope struct {
	client    *Client
	principal uuid.UUID
}

// NewSessionScope binds a scope to a resolved principal.
func NewSessionScope(client *Client, principal auth.Principal) (*SessionScope, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if principal.ID == uuid.Nil {
		return nil, fmt.Errorf("session scope requires a principal")
	}
	return &SessionScope{client: client, principal: principal.ID}, nil
}

// PrincipalID returns the principal the scope acts as.
func (s *SessionScope) PrincipalID() uuid.UUID {
	return s.principal
}

// Run executes fn in a transaction that has assumed the session role.
func (s *SessionScope) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if s.client.supportsRoles() {
			if err := assume(tx, s.client.sessionRole, s.principal); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// ElevatedScope runs work under the service role, bypassing row level
// security. Build one per request, after the admin check, and let it go out
// of scope with the request.
type ElevatedScope struct {
	client *Client
	grant  auth.AdminGrant
}

// NewElevatedScope requires a grant produced by a successful admin check.
func NewElevatedScope(client *Client, grant auth.AdminGrant) (*ElevatedScope, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if !grant.Valid() {
		return nil, fmt.Errorf("elevated scope requires an admin grant")
	}
	return &ElevatedScope{client: client, grant: grant}, nil
}

// Grant returns the admin grant the scope was built from.
func (e *ElevatedScope) Grant() auth.AdminGrant {
	return e.grant
}

// Run executes fn in a transaction that has assumed the service role.
func (e *ElevatedScope) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if e == nil || !e.grant.Valid() {
		return fmt.Errorf("elevated scope is not initialized")
	}
	return e.client.WithTx(ctx, func(tx *gorm.DB) error {
		if e.client.supportsRoles() {
			if err := assume(tx, e.client.serviceRole, e.grant.ActorID()); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

func assume(tx *gorm.DB, role string, subject uuid.UUID) error {
	if role == "" {
		return fmt.Errorf("database role is not configured")
	}
	sub := ""
	if subject != uuid.Nil {
		sub = subject.String()
	}
	if err := tx.Exec("SELECT set_config('request.jwt.claim.sub', ?, true)", sub).Error; err != nil {
		return fmt.Errorf("setting request subject: %w", err)
	}
	if err := tx.Exec("SET LOCAL ROLE " + pq.QuoteIdentifier(role)).Error; err != nil {
		return fmt.Errorf("assuming role %s: %w", role, err)
	}
	return nil
}
