package models

import (
	"time"

	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a piece of equipment offered for rent.
type Product struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name         string              `gorm:"not null"`
	Category     string              `gorm:"not null"`
	SerialNumber string              `gorm:"column:serial_number;not null;uniqueIndex:products_serial_number_key"`
	Model        string              `gorm:"column:model"`
	Status       enums.ProductStatus `gorm:"type:text;not null;default:available"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
