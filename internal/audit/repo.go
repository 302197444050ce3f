package audit

import (
	"context"

	"github.com/genesoft/portal-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists activity log rows. Rows are never updated or deleted.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an activity log repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one record.
func (r *Repository) Insert(ctx context.Context, record *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListRecent returns the newest records first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
