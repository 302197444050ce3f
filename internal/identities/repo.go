package identities

import (
	"context"
	"time"

	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes identity record persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an identities repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new identity.
func (r *Repository) Create(ctx context.Context, identity *models.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

// FindByEmail retrieves the identity matching the provided login identifier.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindByID loads an identity by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// List returns every identity ordered by creation.
func (r *Repository) List(ctx context.Context) ([]models.Identity, error) {
	var out []models.Identity
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEmail overwrites the login identifier and reports affected rows.
func (r *Repository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Updates(map[string]any{"email": email, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpdateLastSignIn refreshes the identity's last_sign_in_at timestamp.
func (r *Repository) UpdateLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("last_sign_in_at", at).Error
}

// Delete removes an identity and reports affected rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Identity{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
