package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/memberships"
	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByLab(ctx context.Context, labID uuid.UUID, page pagination.Params) ([]models.Item, int64, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type labRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lab, error)
}

type membershipsRepository interface {
	GetMembership(ctx context.Context, labID, userID uuid.UUID) (*models.LabMembership, error)
}

// Service exposes equipment operations scoped to a lab.
type Service interface {
	Create(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetByID(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) (*ItemDTO, error)
	ListByLab(ctx context.Context, actor memberships.Actor, labID uuid.UUID, page pagination.Params) ([]ItemDTO, int64, error)
	Update(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	Delete(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) error
}

type service struct {
	repo        itemRepository
	labs        labRepository
	memberships membershipsRepository
}

// NewService builds an item service with the provided repositories.
func NewService(repo itemRepository, labsRepo labRepository, membershipsRepo membershipsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if labsRepo == nil {
		return nil, fmt.Errorf("labs repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	return &service{repo: repo, labs: labsRepo, memberships: membershipsRepo}, nil
}

// CreateItemInput captures the creation fields for a new item.
type CreateItemInput struct {
	Name     string
	Quantity int
	ImageURL *string
	Vendor   *string
	Params   *string
	Tags     []string
}

// UpdateItemInput captures the allowed item fields for mutation. Nil fields
// are left untouched.
type UpdateItemInput struct {
	Name     *string
	Quantity *int
	ImageURL *string
	Vendor   *string
	Params   *string
	Tags     []string
}

func (s *service) Create(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	if err := s.authorizeWrite(ctx, actor, labID); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	item, err := s.repo.Create(ctx, &models.Item{
		LabID:    labID,
		Name:     input.Name,
		Quantity: input.Quantity,
		ImageURL: input.ImageURL,
		Vendor:   input.Vendor,
		Params:   input.Params,
		Tags:     input.Tags,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return FromModel(item), nil
}

func (s *service) GetByID(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) (*ItemDTO, error) {
	if err := s.authorizeRead(ctx, actor, labID); err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) ListByLab(ctx context.Context, actor memberships.Actor, labID uuid.UUID, page pagination.Params) ([]ItemDTO, int64, error) {
	if err := s.authorizeRead(ctx, actor, labID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.ListByLab(ctx, labID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return FromModels(list), total, nil
}

func (s *service) Update(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	if err := s.authorizeWrite(ctx, actor, labID); err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		item.Quantity = *input.Quantity
	}
	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}
	if input.Vendor != nil {
		item.Vendor = input.Vendor
	}
	if input.Params != nil {
		item.Params = input.Params
	}
	if input.Tags != nil {
		item.Tags = input.Tags
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	return FromModel(item), nil
}

func (s *service) Delete(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) error {
	if err := s.authorizeWrite(ctx, actor, labID); err != nil {
		return err
	}
	item, err := s.loadItem(ctx, labID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

// loadItem fetches the item and verifies it belongs to the given lab. Items
// reached through another lab's URL are reported as missing, not forbidden.
func (s *service) loadItem(ctx context.Context, labID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item.LabID != labID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func (s *service) actorMembership(ctx context.Context, actor memberships.Actor, labID uuid.UUID) (*models.LabMembership, error) {
	if actor.Superuser {
		return nil, nil
	}
	membership, err := s.memberships.GetMembership(ctx, labID, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	return membership, nil
}

// checkLab verifies the lab exists before any membership question is asked,
// so probing an unknown lab yields not-found rather than forbidden.
func (s *service) checkLab(ctx context.Context, labID uuid.UUID) error {
	if _, err := s.labs.FindByID(ctx, labID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lab not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lab")
	}
	return nil
}

func (s *service) authorizeRead(ctx context.Context, actor memberships.Actor, labID uuid.UUID) error {
	if err := s.checkLab(ctx, labID); err != nil {
		return err
	}
	membership, err := s.actorMembership(ctx, actor, labID)
	if err != nil {
		return err
	}
	return memberships.AuthorizeRead(actor, membership)
}

func (s *service) authorizeWrite(ctx context.Context, actor memberships.Actor, labID uuid.UUID) error {
	if err := s.checkLab(ctx, labID); err != nil {
		return err
	}
	membership, err := s.actorMembership(ctx, actor, labID)
	if err != nil {
		return err
	}
	return memberships.AuthorizeWrite(actor, membership, enums.CapabilityEditItems)
}
