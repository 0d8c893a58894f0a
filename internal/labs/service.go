package labs

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

type labRepository interface {
	CreateWithTx(tx *gorm.DB, dto CreateLabDTO) (*models.Lab, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lab, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.Lab, int64, error)
	ListForMember(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Lab, int64, error)
	Update(ctx context.Context, lab *models.Lab) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type membershipsRepository interface {
	GetMembership(ctx context.Context, labID, userID uuid.UUID) (*models.LabMembership, error)
	Upsert(ctx context.Context, membership *models.LabMembership) (*models.LabMembership, error)
	UpsertWithTx(tx *gorm.DB, membership *models.LabMembership) error
	UpdateCapabilities(ctx context.Context, labID, userID uuid.UUID, caps memberships.CapabilitiesDTO) (*models.LabMembership, error)
	Delete(ctx context.Context, labID, userID uuid.UUID) error
	ListLabMembers(ctx context.Context, labID uuid.UUID) ([]memberships.LabMemberDTO, error)
}

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes lab and lab-membership operations.
type Service interface {
	Create(ctx context.Context, actor memberships.Actor, input CreateLabInput) (*LabDTO, error)
	GetByID(ctx context.Context, actor memberships.Actor, labID uuid.UUID) (*LabDTO, error)
	List(ctx context.Context, actor memberships.Actor, page pagination.Params) ([]LabDTO, int64, error)
	Update(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input UpdateLabInput) (*LabDTO, error)
	Delete(ctx context.Context, actor memberships.Actor, labID uuid.UUID) error

	ListMembers(ctx context.Context, actor memberships.Actor, labID uuid.UUID) ([]memberships.LabMemberDTO, error)
	AddMember(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input AddMemberInput) (*memberships.MembershipDTO, error)
	AddMembersByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input AddMembersByEmailInput) ([]memberships.MembershipDTO, error)
	UpdateMemberCapabilities(ctx context.Context, actor memberships.Actor, labID, userID uuid.UUID, caps memberships.CapabilitiesDTO) (*memberships.MembershipDTO, error)
	UpdateMemberCapabilitiesByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, email string, caps memberships.CapabilitiesDTO) (*memberships.MembershipDTO, error)
	RemoveMember(ctx context.Context, actor memberships.Actor, labID, userID uuid.UUID) error
	RemoveMemberByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, email string) error
}

type service struct {
	repo        labRepository
	memberships membershipsRepository
	users       usersRepository
	tx          txRunner
}

// NewService builds a lab service with the provided repositories.
func NewService(repo labRepository, membershipsRepo membershipsRepository, usersRepo usersRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lab repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		memberships: membershipsRepo,
		users:       usersRepo,
		tx:          tx,
	}, nil
}

// CreateLabInput captures the creation fields for a new lab.
type CreateLabInput struct {
	Name        string
	Description *string
}

// UpdateLabInput captures the allowed lab fields for mutation.
type UpdateLabInput struct {
	Name        *string
	Description *string
}

// AddMemberInput captures the data required to attach a user to a lab.
type AddMemberInput struct {
	UserID       uuid.UUID
	Capabilities memberships.CapabilitiesDTO
}

// AddMembersByEmailInput attaches a batch of users, identified by email,
// with a shared set of capability flags.
type AddMembersByEmailInput struct {
	Emails       []string
	Capabilities memberships.CapabilitiesDTO
}

// Create persists the lab and seeds the creator with a full-capability
// membership in the same transaction.
func (s *service) Create(ctx context.Context, actor memberships.Actor, input CreateLabInput) (*LabDTO, error) {
	var created *models.Lab
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lab, err := s.repo.CreateWithTx(tx, CreateLabDTO{
			Name:        input.Name,
			Description: input.Description,
			OwnerID:     actor.ID,
		})
		if err != nil {
			return err
		}
		if err := s.memberships.UpsertWithTx(tx, &models.LabMembership{
			LabID:        lab.ID,
			UserID:       actor.ID,
			CanEditLab:   true,
			CanEditItems: true,
			CanEditUsers: true,
		}); err != nil {
			return err
		}
		created = lab
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lab")
	}
	return FromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, actor memberships.Actor, labID uuid.UUID) (*LabDTO, error) {
	lab, err := s.loadLab(ctx, labID)
	if err != nil {
		return nil, err
	}
	membership, err := s.actorMembership(ctx, actor, labID)
	if err != nil {
		return nil, err
	}
	if err := memberships.AuthorizeRead(actor, membership); err != nil {
		return nil, err
	}
	return FromModel(lab), nil
}

func (s *service) List(ctx context.Context, actor memberships.Actor, page pagination.Params) ([]LabDTO, int64, error) {
	var (
		list  []models.Lab
		total int64
		err   error
	)
	if actor.Superuser {
		list, total, err = s.repo.ListAll(ctx, page)
	} else {
		list, total, err = s.repo.ListForMember(ctx, actor.ID, page)
	}
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list labs")
	}
	return FromModels(list), total, nil
}

func (s *service) Update(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input UpdateLabInput) (*LabDTO, error) {
	lab, err := s.loadLab(ctx, labID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditLab); err != nil {
		return nil, err
	}

	if input.Name != nil {
		lab.Name = *input.Name
	}
	if input.Description != nil {
		lab.Description = input.Description
	}

	if err := s.repo.Update(ctx, lab); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lab")
	}
	return FromModel(lab), nil
}

func (s *service) Delete(ctx context.Context, actor memberships.Actor, labID uuid.UUID) error {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditLab); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, labID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lab not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete lab")
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, actor memberships.Actor, labID uuid.UUID) ([]memberships.LabMemberDTO, error) {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return nil, err
	}
	membership, err := s.actorMembership(ctx, actor, labID)
	if err != nil {
		return nil, err
	}
	if err := memberships.AuthorizeRead(actor, membership); err != nil {
		return nil, err
	}
	members, err := s.memberships.ListLabMembers(ctx, labID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lab members")
	}
	return members, nil
}

func (s *service) AddMember(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input AddMemberInput) (*memberships.MembershipDTO, error) {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	membership, err := s.memberships.Upsert(ctx, &models.LabMembership{
		LabID:        labID,
		UserID:       input.UserID,
		CanEditLab:   input.Capabilities.CanEditLab,
		CanEditItems: input.Capabilities.CanEditItems,
		CanEditUsers: input.Capabilities.CanEditUsers,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add lab member")
	}
	return memberships.ToDTO(membership), nil
}

// AddMembersByEmail resolves each email to a user and upserts a membership
// with the given capabilities. Fails on the first unknown email.
func (s *service) AddMembersByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input AddMembersByEmailInput) ([]memberships.MembershipDTO, error) {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return nil, err
	}

	out := make([]memberships.MembershipDTO, 0, len(input.Emails))
	for _, email := range input.Emails {
		user, err := s.resolveUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		membership, err := s.memberships.Upsert(ctx, &models.LabMembership{
			LabID:        labID,
			UserID:       user.ID,
			CanEditLab:   input.Capabilities.CanEditLab,
			CanEditItems: input.Capabilities.CanEditItems,
			CanEditUsers: input.Capabilities.CanEditUsers,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add lab member")
		}
		out = append(out, *memberships.ToDTO(membership))
	}
	return out, nil
}

func (s *service) UpdateMemberCapabilities(ctx context.Context, actor memberships.Actor, labID, userID uuid.UUID, caps memberships.CapabilitiesDTO) (*memberships.MembershipDTO, error) {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return nil, err
	}
	membership, err := s.memberships.UpdateCapabilities(ctx, labID, userID, caps)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member capabilities")
	}
	return memberships.ToDTO(membership), nil
}

func (s *service) UpdateMemberCapabilitiesByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, email string, caps memberships.CapabilitiesDTO) (*memberships.MembershipDTO, error) {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return nil, err
	}
	user, err := s.resolveUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	membership, err := s.memberships.UpdateCapabilities(ctx, labID, user.ID, caps)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member capabilities")
	}
	return memberships.ToDTO(membership), nil
}

func (s *service) RemoveMember(ctx context.Context, actor memberships.Actor, labID, userID uuid.UUID) error {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, labID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove lab member")
	}
	return nil
}

func (s *service) RemoveMemberByEmail(ctx context.Context, actor memberships.Actor, labID uuid.UUID, email string) error {
	if _, err := s.loadLab(ctx, labID); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, actor, labID, enums.CapabilityEditUsers); err != nil {
		return err
	}
	user, err := s.resolveUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, labID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove lab member")
	}
	return nil
}

func (s *service) resolveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) loadLab(ctx context.Context, labID uuid.UUID) (*models.Lab, error) {
	lab, err := s.repo.FindByID(ctx, labID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lab not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lab")
	}
	return lab, nil
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

func (s *service) authorizeWrite(ctx context.Context, actor memberships.Actor, labID uuid.UUID, capability enums.Capability) error {
	membership, err := s.actorMembership(ctx, actor, labID)
	if err != nil {
		return err
	}
	return memberships.AuthorizeWrite(actor, membership, capability)
}
