package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/enums"
)

// LabMembership links a user with a lab and carries their capability flags.
// A (lab, user) pair holds at most one row.
type LabMembership struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	LabID        uuid.UUID `gorm:"column:lab_id;type:uuid;not null;uniqueIndex:idx_lab_memberships_lab_user"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_lab_memberships_lab_user"`
	CanEditLab   bool      `gorm:"column:can_edit_lab;not null;default:false"`
	CanEditItems bool      `gorm:"column:can_edit_items;not null;default:false"`
	CanEditUsers bool      `gorm:"column:can_edit_users;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *LabMembership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Grants reports whether the membership carries the requested capability.
func (m LabMembership) Grants(capability enums.Capability) bool {
	switch capability {
	case enums.CapabilityEditLab:
		return m.CanEditLab
	case enums.CapabilityEditItems:
		return m.CanEditItems
	case enums.CapabilityEditUsers:
		return m.CanEditUsers
	}
	return false
}
