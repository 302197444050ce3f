package models

import (
	"time"

	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
)

// Profile holds display data and the dashboard role of one identity. Its ID
// is the identity ID.
type Profile struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email       string     `gorm:"type:text;not null"`
	FullName    string     `gorm:"column:full_name;not null"`
	Role        enums.Role `gorm:"type:text;not null;default:client"`
	CompanyName *string    `gorm:"column:company_name"`
	LogoURL     *string    `gorm:"column:logo_url"`
	WebsiteURL  *string    `gorm:"column:website_url"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
