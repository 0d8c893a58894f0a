package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

// Repository handles item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to item operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item row.
func (r *Repository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads an item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByLab returns a page of the lab's items plus the total count.
func (r *Repository) ListByLab(ctx context.Context, labID uuid.UUID, page pagination.Params) ([]models.Item, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("lab_id = ?", labID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Item
	err := r.db.WithContext(ctx).
		Where("lab_id = ?", labID).
		Order("created_at ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update persists every field of the item row.
func (r *Repository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes the item row. Missing rows surface as ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
