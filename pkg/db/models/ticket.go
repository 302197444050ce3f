package models

import (
	"time"

	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is a support request opened by a client.
type Ticket struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ClientID    uuid.UUID            `gorm:"column:client_id;type:uuid;not null;index"`
	Subject     string               `gorm:"not null"`
	Description string               `gorm:"not null"`
	Status      enums.TicketStatus   `gorm:"type:text;not null;default:open"`
	Priority    enums.TicketPriority `gorm:"type:text;not null;default:medium"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
