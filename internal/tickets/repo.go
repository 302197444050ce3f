package tickets

import (
	"context"

	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type listQuery struct {
	ClientID *uuid.UUID
	Status   *enums.TicketStatus
	Limit    int
	Cursor   *pagination.Cursor
}

// Repository exposes ticket persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a tickets repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// List returns newest tickets first, one row beyond the page size.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&models.Ticket{})
	if q.ClientID != nil {
		query = query.Where("client_id = ?", *q.ClientID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var out []models.Ticket
	if err := query.Scopes(pagination.Page(q.Cursor, q.Limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Ticket{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// Count counts tickets, optionally restricted to the given statuses.
func (r *Repository) Count(ctx context.Context, statuses ...enums.TicketStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Ticket{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
