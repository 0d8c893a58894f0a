package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Borrowing is a reservation of an item by a user over a time window.
// ReturnedAt nil means the loan is still open; open loans are the only ones
// considered by the conflict check.
type Borrowing struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ItemID     uuid.UUID  `gorm:"column:item_id;type:uuid;not null;index"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	BorrowedAt time.Time  `gorm:"column:borrowed_at;not null"`
	ReturnedAt *time.Time `gorm:"column:returned_at"`
	BenchName  *string    `gorm:"column:table_name"`
	SystemName *string    `gorm:"column:system_name"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Borrowing) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Open reports whether the loan has not been returned yet.
func (b Borrowing) Open() bool {
	return b.ReturnedAt == nil
}
