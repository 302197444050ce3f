package product

import (
	"time"

	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
)

// ProductDTO is the API representation of a rental product.
type ProductDTO struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	SerialNumber string              `json:"serialNumber"`
	Model        string              `json:"model,omitempty"`
	Status       enums.ProductStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// NewProductDTO maps a product row to its API shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		SerialNumber: p.SerialNumber,
		Model:        p.Model,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
