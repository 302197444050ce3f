package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const profileNotFound = "profile not found"

// Service is the role store and the owner of profile mutations.
type Service struct {
	db *db.Client
}

// NewService constructs a profile service.
func NewService(client *db.Client) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &Service{db: client}, nil
}

// GetRole reads the principal's role under its own session scope. The value
// is never cached; every authorization boundary calls this again. Any error
// must be treated as deny.
func (s *Service) GetRole(ctx context.Context, principal auth.Principal) (enums.Role, error) {
	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}

	var raw string
	err = scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		raw, err = NewRepository(tx).FindRole(ctx, principal.ID)
		return err
	})
	if err != nil {
		if db.IsNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, profileNotFound)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
	}

	role, err := enums.ParseRole(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored role is invalid")
	}
	return role, nil
}

// GetOwn returns the principal's own profile.
func (s *Service) GetOwn(ctx context.Context, principal auth.Principal) (*View, error) {
	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}

	var profile *models.Profile
	err = scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		profile, err = NewRepository(tx).FindByID(ctx, principal.ID)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, "load profile")
	}
	view := FromModel(profile)
	return &view, nil
}

// UpdateOwnInput carries the display fields an owner may change. Role is not
// among them.
type UpdateOwnInput struct {
	FullName    *string
	CompanyName *string
}

// UpdateOwn applies the owner's settings change under their session scope.
func (s *Service) UpdateOwn(ctx context.Context, principal auth.Principal, input UpdateOwnInput) (*View, error) {
	fields := map[string]any{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		fields["full_name"] = name
	}
	if input.CompanyName != nil {
		fields["company_name"] = optional(*input.CompanyName)
	}

	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}

	var profile *models.Profile
	err = scope.Run(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if len(fields) > 0 {
			rows, err := repo.UpdateFields(ctx, principal.ID, fields)
			if err != nil {
				return err
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, profileNotFound)
			}
		}
		var err error
		profile, err = repo.FindByID(ctx, principal.ID)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, "update profile")
	}
	view := FromModel(profile)
	return &view, nil
}

// DisplayFields are the profile fields an admin may set on another user.
// Nil pointers leave the column untouched.
type DisplayFields struct {
	FullName    *string
	CompanyName *string
	LogoURL     *string
	WebsiteURL  *string
}

func (d DisplayFields) columns() map[string]any {
	fields := map[string]any{}
	if d.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*d.FullName)
	}
	if d.CompanyName != nil {
		fields["company_name"] = optional(*d.CompanyName)
	}
	if d.LogoURL != nil {
		fields["logo_url"] = optional(*d.LogoURL)
	}
	if d.WebsiteURL != nil {
		fields["website_url"] = optional(*d.WebsiteURL)
	}
	return fields
}

// UpdateDisplay sets display fields on any profile.
func (s *Service) UpdateDisplay(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, display DisplayFields) error {
	fields := display.columns()
	if len(fields) == 0 {
		return nil
	}
	return s.updateElevated(ctx, scope, id, fields, "update profile display fields")
}

// MirrorEmail copies an identity's login email onto its profile row.
func (s *Service) MirrorEmail(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, email string) error {
	return s.updateElevated(ctx, scope, id, map[string]any{"email": email}, "mirror profile email")
}

func (s *Service) updateElevated(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, fields map[string]any, msg string) error {
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		rows, err := NewRepository(tx).UpdateFields(ctx, id, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, profileNotFound)
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, msg)
	}
	return nil
}

// CountByRole counts profiles with the given role.
func (s *Service) CountByRole(ctx context.Context, scope *db.ElevatedScope, role enums.Role) (int64, error) {
	var count int64
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		count, err = NewRepository(tx).CountByRole(ctx, role)
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count profiles")
	}
	return count, nil
}

// SyncReport summarises one email reconciliation run.
type SyncReport struct {
	Checked int
	Updated int
	Missing int
}

// SyncEmails brings every profile email in line with its identity. Rows are
// updated one transaction at a time so a single failure does not roll back
// the rest; all failures are returned together.
func (s *Service) SyncEmails(ctx context.Context, scope *db.ElevatedScope, identities []models.Identity) (SyncReport, error) {
	var report SyncReport

	var stored map[uuid.UUID]string
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		stored, err = NewRepository(tx).ListEmails(ctx)
		return err
	})
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list profile emails")
	}

	var errs error
	for _, identity := range identities {
		report.Checked++
		current, ok := stored[identity.ID]
		if !ok {
			report.Missing++
			continue
		}
		if current == identity.Email {
			continue
		}
		if err := s.MirrorEmail(ctx, scope, identity.ID, identity.Email); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("profile %s: %w", identity.ID, err))
			continue
		}
		report.Updated++
	}
	return report, errs
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func notFoundOr(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, profileNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
