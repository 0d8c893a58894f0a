package borrowings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/memberships"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type stubBorrowingRepo struct {
	rows map[uuid.UUID]*models.Borrowing
}

func newStubBorrowingRepo() *stubBorrowingRepo {
	return &stubBorrowingRepo{rows: map[uuid.UUID]*models.Borrowing{}}
}

func (s *stubBorrowingRepo) Create(_ context.Context, b *models.Borrowing) (*models.Borrowing, error) {
	b.ID = uuid.New()
	s.rows[b.ID] = b
	return b, nil
}

func (s *stubBorrowingRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Borrowing, error) {
	if b, ok := s.rows[id]; ok {
		cpy := *b
		return &cpy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBorrowingRepo) ListByItem(_ context.Context, itemID uuid.UUID, _ pagination.Params) ([]models.Borrowing, int64, error) {
	var out []models.Borrowing
	for _, b := range s.rows {
		if b.ItemID == itemID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubBorrowingRepo) ListOpenByItem(_ context.Context, itemID uuid.UUID) ([]models.Borrowing, error) {
	var out []models.Borrowing
	for _, b := range s.rows {
		if b.ItemID == itemID && b.Open() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBorrowingRepo) Update(_ context.Context, b *models.Borrowing) error {
	s.rows[b.ID] = b
	return nil
}

func (s *stubBorrowingRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

type stubItems struct {
	items map[uuid.UUID]*models.Item
}

func (s *stubItems) FindByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLabs struct {
	labs map[uuid.UUID]*models.Lab
}

func (s *stubLabs) add() uuid.UUID {
	if s.labs == nil {
		s.labs = map[uuid.UUID]*models.Lab{}
	}
	id := uuid.New()
	s.labs[id] = &models.Lab{ID: id, Name: "lab", OwnerID: uuid.New()}
	return id
}

func (s *stubLabs) FindByID(_ context.Context, id uuid.UUID) (*models.Lab, error) {
	if lab, ok := s.labs[id]; ok {
		return lab, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubMemberships struct {
	members map[uuid.UUID]map[uuid.UUID]bool
}

func (s *stubMemberships) grant(labID, userID uuid.UUID) {
	if s.members == nil {
		s.members = map[uuid.UUID]map[uuid.UUID]bool{}
	}
	if s.members[labID] == nil {
		s.members[labID] = map[uuid.UUID]bool{}
	}
	s.members[labID][userID] = true
}

func (s *stubMemberships) GetMembership(_ context.Context, labID, userID uuid.UUID) (*models.LabMembership, error) {
	if s.members[labID][userID] {
		return &models.LabMembership{ID: uuid.New(), LabID: labID, UserID: userID}, nil
	}
	return nil, nil
}

type fixture struct {
	svc     Service
	repo    *stubBorrowingRepo
	items   *stubItems
	labs    *stubLabs
	members *stubMemberships
	labID   uuid.UUID
	item    *models.Item
	member  memberships.Actor
}

func newFixture(t *testing.T, quantity int) *fixture {
	t.Helper()
	repo := newStubBorrowingRepo()
	items := &stubItems{items: map[uuid.UUID]*models.Item{}}
	labs := &stubLabs{}
	members := &stubMemberships{}

	labID := labs.add()
	item := &models.Item{ID: uuid.New(), LabID: labID, Name: "spectrometer", Quantity: quantity}
	items.items[item.ID] = item

	member := memberships.Actor{ID: uuid.New()}
	members.grant(labID, member.ID)

	svc, err := NewService(repo, items, labs, members)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, items: items, labs: labs, members: members, labID: labID, item: item, member: member}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestCreateRequiresMembershipOnly(t *testing.T) {
	f := newFixture(t, 1)

	outsider := memberships.Actor{ID: uuid.New()}
	_, err := f.svc.Create(context.Background(), outsider, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")}); err != nil {
		t.Fatalf("member create failed: %v", err)
	}
}

func TestCreateRejectsUnavailableItem(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if typed.Message() != "item is not available" {
		t.Fatalf("unexpected message: %q", typed.Message())
	}
}

func TestCreateDetectsOverlap(t *testing.T) {
	f := newFixture(t, 3)

	if _, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-05")}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	end := ts(t, "2024-01-10")
	_, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01"), End: &end})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if typed.Message() != "item is already borrowed during the requested period" {
		t.Fatalf("unexpected message: %q", typed.Message())
	}
}

func TestCreateBoundedWindowStoresClosedLoan(t *testing.T) {
	f := newFixture(t, 1)

	end := ts(t, "2024-01-10")
	dto, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01"), End: &end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.ReturnedAt == nil || !dto.ReturnedAt.Equal(end) {
		t.Fatalf("bounded window should store returned_at=end: %+v", dto)
	}

	// The closed loan never enters conflict consideration.
	if _, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")}); err != nil {
		t.Fatalf("second window blocked by a closed loan: %v", err)
	}
}

func TestCreateValidatesWindowOrder(t *testing.T) {
	f := newFixture(t, 1)

	end := ts(t, "2023-12-01")
	_, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01"), End: &end})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateUnknownItem(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Create(context.Background(), f.member, f.labID, uuid.New(), CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateInNonexistentLab(t *testing.T) {
	f := newFixture(t, 1)

	missingLab := uuid.New()
	root := memberships.Actor{ID: uuid.New(), Superuser: true}
	_, err := f.svc.Create(context.Background(), root, missingLab, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	expectCode(t, err, pkgerrors.CodeNotFound)

	// Non-members probing an unknown lab learn it is missing, not that
	// they lack membership.
	outsider := memberships.Actor{ID: uuid.New()}
	_, err = f.svc.Create(context.Background(), outsider, missingLab, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	expectCode(t, err, pkgerrors.CodeNotFound)

	if len(f.repo.rows) != 0 {
		t.Fatalf("no loan should be recorded under a missing lab, got %d", len(f.repo.rows))
	}
}

func TestReturnClosesOpenLoanOnce(t *testing.T) {
	f := newFixture(t, 1)

	dto, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	when := ts(t, "2024-01-07")
	closed, err := f.svc.Return(context.Background(), f.member, f.labID, f.item.ID, dto.ID, ReturnBorrowingInput{ReturnedAt: &when})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if closed.ReturnedAt == nil || !closed.ReturnedAt.Equal(when) {
		t.Fatalf("returned_at not set: %+v", closed)
	}

	_, err = f.svc.Return(context.Background(), f.member, f.labID, f.item.ID, dto.ID, ReturnBorrowingInput{})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	// Returning frees the item for any window again.
	if _, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")}); err != nil {
		t.Fatalf("window after return should be accepted: %v", err)
	}
}

func TestReturnBeforeBorrowRejected(t *testing.T) {
	f := newFixture(t, 1)

	dto, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-05")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	when := ts(t, "2024-01-01")
	_, err = f.svc.Return(context.Background(), f.member, f.labID, f.item.ID, dto.ID, ReturnBorrowingInput{ReturnedAt: &when})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestDeleteScopesBorrowingToItem(t *testing.T) {
	f := newFixture(t, 1)

	otherItem := &models.Item{ID: uuid.New(), LabID: f.labID, Name: "other", Quantity: 1}
	f.items.items[otherItem.ID] = otherItem

	dto, err := f.svc.Create(context.Background(), f.member, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = f.svc.Delete(context.Background(), f.member, f.labID, otherItem.ID, dto.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	if err := f.svc.Delete(context.Background(), f.member, f.labID, f.item.ID, dto.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = f.svc.Delete(context.Background(), f.member, f.labID, f.item.ID, dto.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestSuperuserBypassesMembership(t *testing.T) {
	f := newFixture(t, 1)

	super := memberships.Actor{ID: uuid.New(), Superuser: true}
	if _, err := f.svc.Create(context.Background(), super, f.labID, f.item.ID, CreateBorrowingInput{Start: ts(t, "2024-01-01")}); err != nil {
		t.Fatalf("superuser create failed: %v", err)
	}
}
