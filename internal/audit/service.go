package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Record is an activity log entry as returned by the API.
type Record struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"userId"`
	Action     enums.LogAction  `json:"action"`
	EntityType enums.EntityType `json:"entityType"`
	EntityID   *string          `json:"entityId,omitempty"`
	Details    map[string]any   `json:"details,omitempty"`
	IPAddress  *string          `json:"ipAddress,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Service reads the activity log.
type Service struct {
	db *db.Client
}

// NewService constructs an activity log reader.
func NewService(client *db.Client) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &Service{db: client}, nil
}

// ListRecent returns up to limit records, newest first, visible to the
// principal. Row level policies only expose the log to admins.
func (s *Service) ListRecent(ctx context.Context, principal auth.Principal, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}

	var rows []models.ActivityLog
	err = scope.Run(ctx, func(tx *gorm.DB) error {
		var err error
		rows, err = NewRepository(tx).ListRecent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity logs")
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record{
			ID:         row.ID,
			UserID:     row.UserID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Details:    row.Details,
			IPAddress:  row.IPAddress,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
