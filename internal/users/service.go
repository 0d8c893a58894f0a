package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
	"github.com/labstock/labstock-backend/pkg/security"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page pagination.Params) ([]models.User, int64, error)
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes account operations for the current user and superusers.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	List(ctx context.Context, page pagination.Params) ([]UserDTO, int64, error)
	Delete(ctx context.Context, actorID, targetID uuid.UUID) error
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// NewService builds a users service with the provided repository.
func NewService(repo userRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

// UpdateProfileInput captures the self-service mutable fields.
type UpdateProfileInput struct {
	FullName *string
	Password *string
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if input.FullName == nil && input.Password == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if input.FullName != nil {
		if err := s.repo.UpdateFullName(ctx, userID, *input.FullName); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update full name")
		}
	}

	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
	}

	return s.GetByID(ctx, userID)
}

func (s *service) List(ctx context.Context, page pagination.Params) ([]UserDTO, int64, error) {
	list, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return FromModels(list), total, nil
}

func (s *service) Delete(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}
