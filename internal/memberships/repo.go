package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetMembership retrieves a membership by lab and user. A missing row is
// returned as (nil, nil) so callers can feed it straight into the authorizer.
func (r *Repository) GetMembership(ctx context.Context, labID, userID uuid.UUID) (*models.LabMembership, error) {
	var membership models.LabMembership
	err := r.db.WithContext(ctx).
		Where("lab_id = ? AND user_id = ?", labID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// Upsert inserts the membership or, when the (lab, user) pair already exists,
// refreshes its capability flags.
func (r *Repository) Upsert(ctx context.Context, membership *models.LabMembership) (*models.LabMembership, error) {
	if membership == nil {
		return nil, gorm.ErrInvalidValue
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lab_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"can_edit_lab", "can_edit_items", "can_edit_users", "updated_at",
			}),
		}).
		Create(membership).Error
	if err != nil {
		return nil, err
	}
	return r.GetMembership(ctx, membership.LabID, membership.UserID)
}

// UpsertWithTx is the transactional variant of Upsert.
func (r *Repository) UpsertWithTx(tx *gorm.DB, membership *models.LabMembership) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if membership == nil {
		return gorm.ErrInvalidValue
	}
	return tx.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lab_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"can_edit_lab", "can_edit_items", "can_edit_users", "updated_at",
			}),
		}).
		Create(membership).Error
}

// UpdateCapabilities overwrites the capability flags for an existing membership.
func (r *Repository) UpdateCapabilities(ctx context.Context, labID, userID uuid.UUID, caps CapabilitiesDTO) (*models.LabMembership, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LabMembership{}).
		Where("lab_id = ? AND user_id = ?", labID, userID).
		Updates(map[string]any{
			"can_edit_lab":   caps.CanEditLab,
			"can_edit_items": caps.CanEditItems,
			"can_edit_users": caps.CanEditUsers,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetMembership(ctx, labID, userID)
}

// Delete removes the membership row for the lab/user pair.
func (r *Repository) Delete(ctx context.Context, labID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("lab_id = ? AND user_id = ?", labID, userID).
		Delete(&models.LabMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListLabMembers returns memberships for the lab along with user metadata.
func (r *Repository) ListLabMembers(ctx context.Context, labID uuid.UUID) ([]LabMemberDTO, error) {
	var rows []labMemberRow
	err := r.db.WithContext(ctx).
		Model(&models.LabMembership{}).
		Select("lab_memberships.*, users.email, users.full_name").
		Joins("JOIN users ON users.id = lab_memberships.user_id").
		Where("lab_memberships.lab_id = ?", labID).
		Order("lab_memberships.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return labMembersFromRows(rows), nil
}

// ListUserLabIDs returns the identifiers of every lab the user belongs to.
func (r *Repository) ListUserLabIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.LabMembership{}).
		Where("user_id = ?", userID).
		Pluck("lab_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
