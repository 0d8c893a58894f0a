package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID           uuid.UUID `json:"id"`
	LabID        uuid.UUID `json:"lab_id"`
	UserID       uuid.UUID `json:"user_id"`
	CanEditLab   bool      `json:"can_edit_lab"`
	CanEditItems bool      `json:"can_edit_items"`
	CanEditUsers bool      `json:"can_edit_users"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CapabilitiesDTO carries the three write-capability flags as a unit.
type CapabilitiesDTO struct {
	CanEditLab   bool `json:"can_edit_lab"`
	CanEditItems bool `json:"can_edit_items"`
	CanEditUsers bool `json:"can_edit_users"`
}

// LabMemberDTO mixes membership metadata with the associated user profile.
type LabMemberDTO struct {
	MembershipID uuid.UUID `json:"membership_id"`
	LabID        uuid.UUID `json:"lab_id"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	CanEditLab   bool      `json:"can_edit_lab"`
	CanEditItems bool      `json:"can_edit_items"`
	CanEditUsers bool      `json:"can_edit_users"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.LabMembership) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:           m.ID,
		LabID:        m.LabID,
		UserID:       m.UserID,
		CanEditLab:   m.CanEditLab,
		CanEditItems: m.CanEditItems,
		CanEditUsers: m.CanEditUsers,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
