package borrowings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/memberships"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type borrowingRepository interface {
	Create(ctx context.Context, borrowing *models.Borrowing) (*models.Borrowing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error)
	ListByItem(ctx context.Context, itemID uuid.UUID, page pagination.Params) ([]models.Borrowing, int64, error)
	ListOpenByItem(ctx context.Context, itemID uuid.UUID) ([]models.Borrowing, error)
	Update(ctx context.Context, borrowing *models.Borrowing) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type itemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

type labRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lab, error)
}

type membershipsRepository interface {
	GetMembership(ctx context.Context, labID, userID uuid.UUID) (*models.LabMembership, error)
}

// Service exposes reservation operations. Every operation, writes included,
// requires lab membership only; the capability flags do not apply here.
type Service interface {
	Create(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, input CreateBorrowingInput) (*BorrowingDTO, error)
	GetByID(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID) (*BorrowingDTO, error)
	ListByItem(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, page pagination.Params) ([]BorrowingDTO, int64, error)
	Return(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID, input ReturnBorrowingInput) (*BorrowingDTO, error)
	Delete(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID) error
}

type service struct {
	repo        borrowingRepository
	items       itemRepository
	labs        labRepository
	memberships membershipsRepository
	now         func() time.Time
}

// NewService builds a borrowing service with the provided repositories.
func NewService(repo borrowingRepository, items itemRepository, labsRepo labRepository, membershipsRepo membershipsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("borrowing repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if labsRepo == nil {
		return nil, fmt.Errorf("labs repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	return &service{
		repo:        repo,
		items:       items,
		labs:        labsRepo,
		memberships: membershipsRepo,
		now:         time.Now,
	}, nil
}

// CreateBorrowingInput is a proposed reservation window plus the optional
// placement fields.
type CreateBorrowingInput struct {
	Start      time.Time
	End        *time.Time
	BenchName  *string
	SystemName *string
}

// ReturnBorrowingInput closes a loan. ReturnedAt nil means "now".
type ReturnBorrowingInput struct {
	ReturnedAt *time.Time
}

// Create checks availability and conflicts, then records the reservation.
// A bounded window is stored as an already-closed loan (returned_at = end);
// an open-ended one stays open until returned explicitly.
func (s *service) Create(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, input CreateBorrowingInput) (*BorrowingDTO, error) {
	if err := s.authorize(ctx, actor, labID); err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}
	if input.End != nil && input.End.Before(input.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrow period end must not precede its start")
	}

	if item.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is not available")
	}

	existing, err := s.repo.ListOpenByItem(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open borrowings")
	}
	if HasConflict(Window{Start: input.Start, End: input.End}, existing) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "item is already borrowed during the requested period")
	}

	borrowing, err := s.repo.Create(ctx, &models.Borrowing{
		ItemID:     item.ID,
		UserID:     actor.ID,
		BorrowedAt: input.Start,
		ReturnedAt: input.End,
		BenchName:  input.BenchName,
		SystemName: input.SystemName,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create borrowing")
	}
	return FromModel(borrowing), nil
}

func (s *service) GetByID(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID) (*BorrowingDTO, error) {
	if err := s.authorize(ctx, actor, labID); err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, labID, itemID); err != nil {
		return nil, err
	}
	borrowing, err := s.loadBorrowing(ctx, itemID, borrowID)
	if err != nil {
		return nil, err
	}
	return FromModel(borrowing), nil
}

func (s *service) ListByItem(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, page pagination.Params) ([]BorrowingDTO, int64, error) {
	if err := s.authorize(ctx, actor, labID); err != nil {
		return nil, 0, err
	}
	if _, err := s.loadItem(ctx, labID, itemID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.ListByItem(ctx, itemID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list borrowings")
	}
	return FromModels(list), total, nil
}

// Return closes an open loan. Closing an already returned loan is rejected.
func (s *service) Return(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID, input ReturnBorrowingInput) (*BorrowingDTO, error) {
	if err := s.authorize(ctx, actor, labID); err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, labID, itemID); err != nil {
		return nil, err
	}
	borrowing, err := s.loadBorrowing(ctx, itemID, borrowID)
	if err != nil {
		return nil, err
	}
	if !borrowing.Open() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "borrowing is already returned")
	}

	returnedAt := s.now().UTC()
	if input.ReturnedAt != nil {
		returnedAt = *input.ReturnedAt
	}
	if returnedAt.Before(borrowing.BorrowedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return time must not precede the borrow time")
	}

	borrowing.ReturnedAt = &returnedAt
	if err := s.repo.Update(ctx, borrowing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return borrowing")
	}
	return FromModel(borrowing), nil
}

func (s *service) Delete(ctx context.Context, actor memberships.Actor, labID, itemID, borrowID uuid.UUID) error {
	if err := s.authorize(ctx, actor, labID); err != nil {
		return err
	}
	if _, err := s.loadItem(ctx, labID, itemID); err != nil {
		return err
	}
	borrowing, err := s.loadBorrowing(ctx, itemID, borrowID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, borrowing.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete borrowing")
	}
	return nil
}

func (s *service) loadItem(ctx context.Context, labID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
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

func (s *service) loadBorrowing(ctx context.Context, itemID, borrowID uuid.UUID) (*models.Borrowing, error) {
	borrowing, err := s.repo.FindByID(ctx, borrowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load borrowing")
	}
	if borrowing.ItemID != itemID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found")
	}
	return borrowing, nil
}

// authorize checks that the lab exists before the membership question is
// asked, so probing an unknown lab yields not-found rather than forbidden.
// Superusers skip the membership check but not the existence check.
func (s *service) authorize(ctx context.Context, actor memberships.Actor, labID uuid.UUID) error {
	if _, err := s.labs.FindByID(ctx, labID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lab not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lab")
	}
	if actor.Superuser {
		return nil
	}
	membership, err := s.memberships.GetMembership(ctx, labID, actor.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	return memberships.AuthorizeRead(actor, membership)
}
