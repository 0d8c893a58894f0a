package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// ItemDTO exposes equipment data in API responses.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	LabID     uuid.UUID `json:"lab_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Vendor    *string   `json:"vendor,omitempty"`
	Params    *string   `json:"params,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemRequest is the item creation payload.
type CreateItemRequest struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Quantity int      `json:"quantity" validate:"gte=0"`
	ImageURL *string  `json:"image_url" validate:"omitempty,url"`
	Vendor   *string  `json:"vendor" validate:"omitempty,max=255"`
	Params   *string  `json:"params"`
	Tags     []string `json:"tags" validate:"omitempty,dive,max=64"`
}

// UpdateItemRequest carries the mutable item fields; absent fields are kept.
type UpdateItemRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=255"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
	ImageURL *string  `json:"image_url" validate:"omitempty,url"`
	Vendor   *string  `json:"vendor" validate:"omitempty,max=255"`
	Params   *string  `json:"params"`
	Tags     []string `json:"tags" validate:"omitempty,dive,max=64"`
}

// FromModel maps the persisted item into a DTO.
func FromModel(m *models.Item) *ItemDTO {
	if m == nil {
		return nil
	}
	tags := make([]string, len(m.Tags))
	copy(tags, m.Tags)
	return &ItemDTO{
		ID:        m.ID,
		LabID:     m.LabID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		ImageURL:  m.ImageURL,
		Vendor:    m.Vendor,
		Params:    m.Params,
		Tags:      tags,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromModels maps a slice of items into DTOs.
func FromModels(list []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
