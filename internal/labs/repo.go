package labs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

// Repository handles lab persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to lab operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithTx persists a new lab row inside the provided transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, dto CreateLabDTO) (*models.Lab, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	lab := dto.ToModel()
	if err := tx.Create(lab).Error; err != nil {
		return nil, err
	}
	return lab, nil
}

// FindByID loads a lab by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lab, error) {
	var lab models.Lab
	if err := r.db.WithContext(ctx).First(&lab, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lab, nil
}

// ListAll returns a page of every lab plus the total count.
func (r *Repository) ListAll(ctx context.Context, page pagination.Params) ([]models.Lab, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lab{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Lab
	err := r.db.WithContext(ctx).
		Order("created_at").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListForMember returns the labs the user has a membership in.
func (r *Repository) ListForMember(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Lab, int64, error) {
	page = page.Normalize()

	base := r.db.WithContext(ctx).
		Model(&models.Lab{}).
		Joins("JOIN lab_memberships ON lab_memberships.lab_id = labs.id").
		Where("lab_memberships.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Lab
	err := base.
		Order("labs.created_at").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update saves the provided lab.
func (r *Repository) Update(ctx context.Context, lab *models.Lab) error {
	if lab == nil {
		return fmt.Errorf("lab is required")
	}
	return r.db.WithContext(ctx).Save(lab).Error
}

// Delete removes the lab; items and memberships cascade in Postgres.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Lab{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
