package dashboard

import (
	"context"
	"fmt"

	"github.com/genesoft/portal-backend/internal/audit"
	product "github.com/genesoft/portal-backend/internal/products"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/internal/tickets"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"gorm.io/gorm"
)

const recentActivityLimit = 5

// Stats is the dashboard summary shown to staff and admins.
type Stats struct {
	ProductsTotal  int64          `json:"productsTotal"`
	ProductsRented int64          `json:"productsRented"`
	TicketsTotal   int64          `json:"ticketsTotal"`
	TicketsOpen    int64          `json:"ticketsOpen"`
	Clients        int64          `json:"clients"`
	RecentActivity []audit.Record `json:"recentActivity"`
}

type activityReader interface {
	ListRecent(ctx context.Context, principal auth.Principal, limit int) ([]audit.Record, error)
}

// Service computes dashboard stats.
type Service struct {
	db       *db.Client
	activity activityReader
}

// NewService constructs the stats service.
func NewService(client *db.Client, activity activityReader) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity reader is required")
	}
	return &Service{db: client, activity: activity}, nil
}

// Stats counts products, tickets and clients. Recent activity is only
// included for admins.
func (s *Service) Stats(ctx context.Context, principal auth.Principal, role enums.Role) (*Stats, error) {
	scope, err := db.NewSessionScope(s.db, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}

	stats := &Stats{RecentActivity: []audit.Record{}}
	rented := enums.ProductStatusRented
	err = scope.Run(ctx, func(tx *gorm.DB) error {
		products := product.NewRepository(tx)
		ticketRepo := tickets.NewRepository(tx)
		var err error
		if stats.ProductsTotal, err = products.CountByStatus(ctx, nil); err != nil {
			return err
		}
		if stats.ProductsRented, err = products.CountByStatus(ctx, &rented); err != nil {
			return err
		}
		if stats.TicketsTotal, err = ticketRepo.Count(ctx); err != nil {
			return err
		}
		if stats.TicketsOpen, err = ticketRepo.Count(ctx, enums.TicketStatusOpen); err != nil {
			return err
		}
		stats.Clients, err = profiles.NewRepository(tx).CountByRole(ctx, enums.RoleClient)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard stats")
	}

	if role == enums.RoleAdmin {
		recent, err := s.activity.ListRecent(ctx, principal, recentActivityLimit)
		if err != nil {
			return nil, err
		}
		stats.RecentActivity = recent
	}
	return stats, nil
}
