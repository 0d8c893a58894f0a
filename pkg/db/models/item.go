package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Item is a piece of equipment owned by exactly one lab. Quantity is a
// static attribute of the record, not a live availability counter.
type Item struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	LabID     uuid.UUID      `gorm:"column:lab_id;type:uuid;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	Quantity  int            `gorm:"column:quantity;not null;default:0"`
	ImageURL  *string        `gorm:"column:image_url"`
	Vendor    *string        `gorm:"column:vendor"`
	Params    *string        `gorm:"column:params"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
