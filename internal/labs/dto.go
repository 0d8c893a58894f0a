package labs

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// LabDTO exposes lab data in API responses.
type LabDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateLabRequest is the lab creation payload.
type CreateLabRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// UpdateLabRequest carries the mutable lab fields; absent fields are kept.
type UpdateLabRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// MemberCapabilities mirrors the three independent permission flags.
type MemberCapabilities struct {
	CanEditLab   bool `json:"can_edit_lab"`
	CanEditItems bool `json:"can_edit_items"`
	CanEditUsers bool `json:"can_edit_users"`
}

// AddMembersRequest attaches users, addressed by email, with shared flags.
type AddMembersRequest struct {
	Emails       []string           `json:"emails" validate:"required,min=1,dive,email"`
	Capabilities MemberCapabilities `json:"capabilities"`
}

// RemoveMembersRequest detaches users addressed by email.
type RemoveMembersRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

// UpdatePermissionsRequest overwrites one member's capability flags.
type UpdatePermissionsRequest struct {
	Email        string             `json:"email" validate:"required,email"`
	Capabilities MemberCapabilities `json:"capabilities"`
}

// CreateLabDTO holds creation-time data for a new lab.
type CreateLabDTO struct {
	Name        string
	Description *string
	OwnerID     uuid.UUID
}

// FromModel maps the persisted lab into a DTO.
func FromModel(m *models.Lab) *LabDTO {
	if m == nil {
		return nil
	}
	return &LabDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromModels maps a slice of labs into DTOs.
func FromModels(list []models.Lab) []LabDTO {
	out := make([]LabDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

// ToModel prepares the GORM model from the creation DTO.
func (c CreateLabDTO) ToModel() *models.Lab {
	return &models.Lab{
		Name:        c.Name,
		Description: c.Description,
		OwnerID:     c.OwnerID,
	}
}
