package profiles

import (
	"context"
	"time"

	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes profile persistence. It is always bound to a scoped
// transaction handle.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a profile by its identity ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindRole reads only the role column.
func (r *Repository) FindRole(ctx context.Context, id uuid.UUID) (string, error) {
	var row struct {
		Role string
	}
	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Select("role").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

// UpdateFields applies a partial update and reports affected rows.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// ListEmails returns the stored email of every profile keyed by ID.
func (r *Repository) ListEmails(ctx context.Context) (map[uuid.UUID]string, error) {
	var rows []struct {
		ID    uuid.UUID
		Email string
	}
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Select("id", "email").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Email
	}
	return out, nil
}

// CountByRole counts profiles holding role.
func (r *Repository) CountByRole(ctx context.Context, role enums.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
