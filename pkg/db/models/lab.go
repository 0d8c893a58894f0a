package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lab is the tenant unit. Items and memberships hang off it and are removed
// by cascade when the lab goes away.
type Lab struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Lab) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
