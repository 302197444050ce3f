package models

import (
	"time"

	dbtypes "github.com/genesoft/portal-backend/pkg/db/types"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is one append-only audit record.
type ActivityLog struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Action     enums.LogAction  `gorm:"type:text;not null"`
	EntityType enums.EntityType `gorm:"column:entity_type;type:text;not null"`
	EntityID   *string          `gorm:"column:entity_id"`
	Details    dbtypes.JSONMap  `gorm:"type:jsonb"`
	IPAddress  *string          `gorm:"column:ip_address"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
