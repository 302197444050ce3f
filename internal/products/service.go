package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const productNotFound = "product not found"

// Service exposes rental inventory management.
type Service interface {
	ListProducts(ctx context.Context, principal auth.Principal, filters ListFilters) ([]ProductDTO, error)
	CreateProduct(ctx context.Context, principal auth.Principal, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID) error
}

// ListFilters narrows the product list.
type ListFilters struct {
	Status   *enums.ProductStatus
	Category string
	Query    string
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string
	Category     string
	SerialNumber string
	Model        string
	Status       enums.ProductStatus
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string
	Category     *string
	SerialNumber *string
	Model        *string
	Status       *enums.ProductStatus
}

type activityLogger interface {
	LogActivity(ctx context.Context, actor *auth.Principal, entry audit.Entry) <-chan error
}

type service struct {
	dbClient *db.Client
	audit    activityLogger
}

// NewService constructs a product service instance.
func NewService(dbClient *db.Client, auditLogger activityLogger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if auditLogger == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	return &service{dbClient: dbClient, audit: auditLogger}, nil
}

func (s *service) ListProducts(ctx context.Context, principal auth.Principal, filters ListFilters) ([]ProductDTO, error) {
	var rows []models.Product
	err := s.run(ctx, principal, func(repo *Repository) error {
		var err error
		rows, err = repo.List(ctx, filters)
		return err
	})
	if err != nil {
		return nil, translate(err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, principal auth.Principal, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Name:         strings.TrimSpace(input.Name),
		Category:     strings.TrimSpace(input.Category),
		SerialNumber: strings.TrimSpace(input.SerialNumber),
		Model:        strings.TrimSpace(input.Model),
		Status:       input.Status,
	}
	if product.Status == "" {
		product.Status = enums.ProductStatusAvailable
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	err := s.run(ctx, principal, func(repo *Repository) error {
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, translate(err, "create product")
	}

	s.record(ctx, principal, enums.LogActionCreateProduct, product.ID, map[string]any{
		"name":          product.Name,
		"serial_number": product.SerialNumber,
	})
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var product *models.Product
	changed := map[string]any{}
	err := s.run(ctx, principal, func(repo *Repository) error {
		var err error
		product, err = repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		applyUpdate(product, input, changed)
		if err := validateProduct(product); err != nil {
			return err
		}
		return repo.Update(ctx, product)
	})
	if err != nil {
		return nil, translate(err, "update product")
	}

	s.record(ctx, principal, enums.LogActionUpdateProduct, product.ID, changed)
	return NewProductDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID) error {
	var deleted *models.Product
	err := s.run(ctx, principal, func(repo *Repository) error {
		var err error
		deleted, err = repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		rows, err := repo.Delete(ctx, productID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, productNotFound)
		}
		return nil
	})
	if err != nil {
		return translate(err, "delete product")
	}

	s.record(ctx, principal, enums.LogActionDeleteProduct, productID, map[string]any{
		"name":          deleted.Name,
		"serial_number": deleted.SerialNumber,
	})
	return nil
}

func (s *service) run(ctx context.Context, principal auth.Principal, fn func(repo *Repository) error) error {
	scope, err := db.NewSessionScope(s.dbClient, principal)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "principal required")
	}
	return scope.Run(ctx, func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (s *service) record(ctx context.Context, principal auth.Principal, action enums.LogAction, id uuid.UUID, details map[string]any) {
	entityID := id.String()
	s.audit.LogActivity(ctx, &principal, audit.Entry{
		Action:     action,
		EntityType: enums.EntityTypeProduct,
		EntityID:   &entityID,
		Details:    details,
	})
}

func applyUpdate(product *models.Product, input UpdateProductInput, changed map[string]any) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
		changed["name"] = product.Name
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
		changed["category"] = product.Category
	}
	if input.SerialNumber != nil {
		product.SerialNumber = strings.TrimSpace(*input.SerialNumber)
		changed["serial_number"] = product.SerialNumber
	}
	if input.Model != nil {
		product.Model = strings.TrimSpace(*input.Model)
		changed["model"] = product.Model
	}
	if input.Status != nil {
		product.Status = *input.Status
		changed["status"] = string(product.Status)
	}
}

func validateProduct(p *models.Product) error {
	if p.Name == "" || p.Category == "" || p.SerialNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name, category and serial number are required")
	}
	if !p.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", p.Status))
	}
	return nil
}

func translate(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, productNotFound)
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "serial number already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
