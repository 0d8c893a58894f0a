package borrowings

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// BorrowingDTO exposes reservation data in API responses.
type BorrowingDTO struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"item_id"`
	UserID     uuid.UUID  `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	BenchName  *string    `json:"table_name,omitempty"`
	SystemName *string    `json:"system_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateBorrowingRequest proposes a reservation window. A present
// returned_at makes the window bounded; otherwise the loan stays open.
type CreateBorrowingRequest struct {
	BorrowedAt time.Time  `json:"borrowed_at" validate:"required"`
	ReturnedAt *time.Time `json:"returned_at" validate:"omitempty,gtefield=BorrowedAt"`
	TableName  *string    `json:"table_name" validate:"omitempty,max=255"`
	SystemName *string    `json:"system_name" validate:"omitempty,max=255"`
}

// ReturnBorrowingRequest closes an open loan. A missing returned_at means
// "now".
type ReturnBorrowingRequest struct {
	ReturnedAt *time.Time `json:"returned_at"`
}

// FromModel maps the persisted borrowing into a DTO.
func FromModel(m *models.Borrowing) *BorrowingDTO {
	if m == nil {
		return nil
	}
	return &BorrowingDTO{
		ID:         m.ID,
		ItemID:     m.ItemID,
		UserID:     m.UserID,
		BorrowedAt: m.BorrowedAt,
		ReturnedAt: m.ReturnedAt,
		BenchName:  m.BenchName,
		SystemName: m.SystemName,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromModels maps a slice of borrowings into DTOs.
func FromModels(list []models.Borrowing) []BorrowingDTO {
	out := make([]BorrowingDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
