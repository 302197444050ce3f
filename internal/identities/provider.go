package identities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	emailTakenMessage  = "a user with this email address has already been registered"
	invalidCredentials = "invalid credentials"
	identityNotFound   = "user not found"
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	VerifyDecoy(password string)
	NeedsRehash(encoded string) bool
}

// Provider is the identity provider: it owns login records and is the only
// component that writes them. Mutations requested by the application require
// an ElevatedScope.
type Provider struct {
	db     *db.Client
	hasher passwordHasher
	now    func() time.Time
}

// NewProvider wires the provider to its backing store.
func NewProvider(client *db.Client, hasher passwordHasher) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	return &Provider{db: client, hasher: hasher, now: func() time.Time { return time.Now().UTC() }}, nil
}

// CreateParams describes a new login.
type CreateParams struct {
	Email    string
	Password string
	FullName string
}

// NormalizeEmail is the canonical form identities are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate verifies a login identifier and password and records the
// sign-in. Unknown identifiers and wrong passwords are indistinguishable. A
// hash made with outdated parameters is replaced while the plaintext is at
// hand; failing to do so does not fail the sign-in.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentials)
	}

	repo := NewRepository(p.db.DB())
	identity, err := repo.FindByEmail(ctx, normalized)
	if err != nil {
		if db.IsNotFound(err) {
			p.hasher.VerifyDecoy(password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentials)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "lookup identity")
	}

	ok, err := p.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentials)
	}

	if p.hasher.NeedsRehash(identity.PasswordHash) {
		if hash, err := p.hasher.Hash(password); err == nil {
			if _, err := repo.UpdatePasswordHash(ctx, identity.ID, hash); err == nil {
				identity.PasswordHash = hash
			}
		}
	}

	now := p.now()
	if err := repo.UpdateLastSignIn(ctx, identity.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "record sign in")
	}
	identity.LastSignInAt = &now
	return identity, nil
}

// Lookup returns the identity for a verified token subject.
func (p *Provider) Lookup(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity, err := NewRepository(p.db.DB()).FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, identityNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "lookup identity")
	}
	return identity, nil
}

// CreateUser creates a confirmed login and provisions its profile row in the
// same transaction. The profile starts as a client carrying the full name.
func (p *Provider) CreateUser(ctx context.Context, scope *db.ElevatedScope, params CreateParams) (*models.Identity, error) {
	email := NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	hash, err := p.hasher.Hash(params.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := p.now()
	identity := &models.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		ConfirmedAt:  &now,
	}

	err = scope.Run(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Create(ctx, identity); err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&models.Profile{
			ID:       identity.ID,
			Email:    email,
			FullName: strings.TrimSpace(params.FullName),
			Role:     enums.RoleClient,
		}).Error
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "create identity")
	}
	return identity, nil
}

// UpdateEmail overwrites the login identifier of an existing identity.
func (p *Provider) UpdateEmail(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, email string) (*models.Identity, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	var updated *models.Identity
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		rows, err := repo.UpdateEmail(ctx, id, normalized)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, identityNotFound)
		}
		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, providerError(err, "update identity email")
	}
	return updated, nil
}

// UpdatePassword replaces the password of an existing identity.
func (p *Provider) UpdatePassword(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID, password string) error {
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	err = scope.Run(ctx, func(tx *gorm.DB) error {
		rows, err := NewRepository(tx).UpdatePasswordHash(ctx, id, hash)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, identityNotFound)
		}
		return nil
	})
	if err != nil {
		return providerError(err, "update identity password")
	}
	return nil
}

// DeleteUser removes an identity together with its profile.
func (p *Provider) DeleteUser(ctx context.Context, scope *db.ElevatedScope, id uuid.UUID) error {
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Delete(&models.Profile{}, "id = ?", id).Error; err != nil {
			return err
		}
		rows, err := NewRepository(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, identityNotFound)
		}
		return nil
	})
	if err != nil {
		return providerError(err, "delete identity")
	}
	return nil
}

// ListIdentities returns every identity. Used by maintenance jobs.
func (p *Provider) ListIdentities(ctx context.Context, scope *db.ElevatedScope) ([]models.Identity, error) {
	var out []models.Identity
	err := scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = NewRepository(tx).List(ctx)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "list identities")
	}
	return out, nil
}

func providerError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, emailTakenMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeProvider, err, msg)
}
