package borrowings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

// Repository handles borrowing persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to borrowing operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new borrowing row.
func (r *Repository) Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error) {
	if err := r.db.WithContext(ctx).Create(borrowing).Error; err != nil {
		return nil, err
	}
	return borrowing, nil
}

// FindByID loads a borrowing by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	if err := r.db.WithContext(ctx).First(&borrowing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// ListByItem returns a page of the item's borrowings, newest first, plus the
// total count.
func (r *Repository) ListByItem(ctx context.Context, itemID uuid.UUID, page pagination.Params) ([]models.Borrowing, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Borrowing{}).Where("item_id = ?", itemID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Borrowing
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("borrowed_at DESC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListOpenByItem returns every unreturned borrowing of the item. The partial
// index on (item_id) WHERE returned_at IS NULL backs this query.
func (r *Repository) ListOpenByItem(ctx context.Context, itemID uuid.UUID) ([]models.Borrowing, error) {
	var list []models.Borrowing
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND returned_at IS NULL", itemID).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Update persists every field of the borrowing row.
func (r *Repository) Update(ctx context.Context, borrowing *models.Borrowing) error {
	return r.db.WithContext(ctx).Save(borrowing).Error
}

// Delete removes the borrowing row. Missing rows surface as ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Borrowing{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
