package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is a login credential owned by the identity provider. Only the
// service role may write to this table.
type Identity struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email        string     `gorm:"type:text;not null;uniqueIndex:auth_users_email_key"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at"`
	LastSignInAt *time.Time `gorm:"column:last_sign_in_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Identity) TableName() string {
	return "auth_users"
}

func (i *Identity) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
