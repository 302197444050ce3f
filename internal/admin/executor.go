// Package admin executes privileged user-management actions on behalf of a
// verified admin.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/internal/identities"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/metrics"
	"github.com/genesoft/portal-backend/pkg/types"
	"github.com/google/uuid"
)

const (
	stepPrimary   = "primary"
	stepSecondary = "secondary"
)

type identityProvider interface {
	CreateUser(ctx context.Context, scope *db.ElevatedScope, params identities.CreateParams) (*models.Identity, error)
	UpdateEmail(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, email string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, password string) error
	DeleteUser(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID) error
}

type profileWriter interface {
	UpdateDisplay(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, display profiles.DisplayFields) error
	MirrorEmail(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, email string) error
}

type sessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type activityLogger interface {
	LogActivity(ctx context.Context, actor *auth.Principal, entry audit.Entry) <-chan error
}

// ExecutorParams bundles the executor's collaborators.
type ExecutorParams struct {
	Identities identityProvider
	Profiles   profileWriter
	Sessions   sessionRevoker
	Audit      activityLogger
	Metrics    *metrics.ElevatedActionMetrics
	Logger     *logger.Logger
}

// Executor runs admin actions: a primary identity change followed by a
// best-effort secondary step. It holds no scope; every call is handed the
// request's ElevatedScope.
type Executor struct {
	identities identityProvider
	profiles   profileWriter
	sessions   sessionRevoker
	audit      activityLogger
	metrics    *metrics.ElevatedActionMetrics
	logg       *logger.Logger
}

// NewExecutor constructs an Executor.
func NewExecutor(params ExecutorParams) (*Executor, error) {
	switch {
	case params.Identities == nil:
		return nil, fmt.Errorf("identity provider is required")
	case params.Profiles == nil:
		return nil, fmt.Errorf("profile writer is required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session revoker is required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit logger is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	return &Executor{
		identities: params.Identities,
		profiles:   params.Profiles,
		sessions:   params.Sessions,
		audit:      params.Audit,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// CreateUserInput is the payload of the create-user action.
type CreateUserInput struct {
	Email       string
	Password    string
	FullName    string
	CompanyName *string
	LogoURL     *string
	WebsiteURL  *string
}

// CreateUser creates a login with its profile, then sets the optional display
// fields.
func (e *Executor) CreateUser(ctx context.Context, scope *db.ElevatedScope, input CreateUserInput) CreateUserOutcome {
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || strings.TrimSpace(input.Password) == "" || fullName == "" {
		return CreateUserOutcome{Outcome: rejected(pkgerrors.New(pkgerrors.CodeValidation, "email, password and full name are required"))}
	}
	email = auth.ToShadowEmail(email)

	var out CreateUserOutcome
	identity, err := e.identities.CreateUser(ctx, scope, identities.CreateParams{
		Email:    email,
		Password: input.Password,
		FullName: fullName,
	})
	out.Primary = StepResult{Attempted: true, Err: err}
	e.observe(enums.LogActionCreateUser, stepPrimary, out.Primary)
	if err != nil {
		return out
	}

	err = e.profiles.UpdateDisplay(ctx, scope, identity.ID, profiles.DisplayFields{
		FullName:    &fullName,
		CompanyName: input.CompanyName,
		LogoURL:     input.LogoURL,
		WebsiteURL:  input.WebsiteURL,
	})
	out.Secondary = e.secondary(ctx, enums.LogActionCreateUser, identity.ID, err)

	e.record(ctx, scope, enums.LogActionCreateUser, identity.ID, map[string]any{
		"email":     identity.Email,
		"full_name": fullName,
	})

	out.User = &types.UserHandle{ID: identity.ID.String(), Email: identity.Email}
	return out
}

// UpdateUsernameInput is the payload of the update-username action.
type UpdateUsernameInput struct {
	UserID string
	Email  string
}

// UpdateUsername overwrites a user's login identifier, then mirrors it onto
// the profile row.
func (e *Executor) UpdateUsername(ctx context.Context, scope *db.ElevatedScope, input UpdateUsernameInput) Outcome {
	userID, err := parseUserID(input.UserID)
	email := strings.TrimSpace(input.Email)
	if err != nil || email == "" {
		return rejected(pkgerrors.New(pkgerrors.CodeValidation, "userId and email are required"))
	}
	email = auth.ToShadowEmail(email)

	var out Outcome
	identity, err := e.identities.UpdateEmail(ctx, scope, userID, email)
	out.Primary = StepResult{Attempted: true, Err: err}
	e.observe(enums.LogActionUpdateUsername, stepPrimary, out.Primary)
	if err != nil {
		return out
	}

	err = e.profiles.MirrorEmail(ctx, scope, userID, identity.Email)
	out.Secondary = e.secondary(ctx, enums.LogActionUpdateUsername, userID, err)

	e.record(ctx, scope, enums.LogActionUpdateUsername, userID, map[string]any{
		"email":    identity.Email,
		"username": auth.FromShadowEmail(identity.Email),
	})
	return out
}

// UpdatePasswordInput is the payload of the update-password action.
type UpdatePasswordInput struct {
	UserID   string
	Password string
}

// UpdatePassword replaces a user's password, then ends their open sessions.
func (e *Executor) UpdatePassword(ctx context.Context, scope *db.ElevatedScope, input UpdatePasswordInput) Outcome {
	userID, err := parseUserID(input.UserID)
	if err != nil || strings.TrimSpace(input.Password) == "" {
		return rejected(pkgerrors.New(pkgerrors.CodeValidation, "userId and password are required"))
	}

	var out Outcome
	err = e.identities.UpdatePassword(ctx, scope, userID, input.Password)
	out.Primary = StepResult{Attempted: true, Err: err}
	e.observe(enums.LogActionUpdatePassword, stepPrimary, out.Primary)
	if err != nil {
		return out
	}

	out.Secondary = e.secondary(ctx, enums.LogActionUpdatePassword, userID, e.sessions.RevokeAll(ctx, userID))

	e.record(ctx, scope, enums.LogActionUpdatePassword, userID, nil)
	return out
}

// DeleteUserInput is the payload of the delete-user action.
type DeleteUserInput struct {
	UserID string
}

// DeleteUser removes a user and their profile, then ends their sessions. An
// admin cannot delete their own account.
func (e *Executor) DeleteUser(ctx context.Context, scope *db.ElevatedScope, input DeleteUserInput) Outcome {
	userID, err := parseUserID(input.UserID)
	if err != nil {
		return rejected(pkgerrors.New(pkgerrors.CodeValidation, "userId is required"))
	}
	if scope != nil && scope.Grant().ActorID() == userID {
		return rejected(pkgerrors.New(pkgerrors.CodeValidation, "you cannot delete your own account"))
	}

	var out Outcome
	err = e.identities.DeleteUser(ctx, scope, userID)
	out.Primary = StepResult{Attempted: true, Err: err}
	e.observe(enums.LogActionDeleteUser, stepPrimary, out.Primary)
	if err != nil {
		return out
	}

	out.Secondary = e.secondary(ctx, enums.LogActionDeleteUser, userID, e.sessions.RevokeAll(ctx, userID))

	e.record(ctx, scope, enums.LogActionDeleteUser, userID, nil)
	return out
}

func (e *Executor) secondary(ctx context.Context, action enums.LogAction, userID uuid.UUID, err error) StepResult {
	result := StepResult{Attempted: true, Err: err}
	e.observe(action, stepSecondary, result)
	if err != nil {
		ctx = e.logg.WithFields(ctx, map[string]any{"action": string(action), "target_user_id": userID.String(), "error": err.Error()})
		e.logg.Warn(ctx, "elevated action secondary step failed")
	}
	return result
}

func (e *Executor) observe(action enums.LogAction, step string, result StepResult) {
	e.metrics.ObserveStep(string(action), step, result.outcome())
}

func (e *Executor) record(ctx context.Context, scope *db.ElevatedScope, action enums.LogAction, target uuid.UUID, details map[string]any) {
	var actor *auth.Principal
	if scope != nil {
		actor = scope.Grant().Actor()
	}
	entityID := target.String()
	e.audit.LogActivity(ctx, actor, audit.Entry{
		Action:     action,
		EntityType: enums.EntityTypeUser,
		EntityID:   &entityID,
		Details:    details,
	})
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("user id is required")
	}
	return id, nil
}
