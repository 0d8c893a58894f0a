package labs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/memberships"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type stubLabRepo struct {
	labs map[uuid.UUID]*models.Lab
}

func newStubLabRepo() *stubLabRepo {
	return &stubLabRepo{labs: map[uuid.UUID]*models.Lab{}}
}

func (s *stubLabRepo) CreateWithTx(_ *gorm.DB, dto CreateLabDTO) (*models.Lab, error) {
	lab := dto.ToModel()
	lab.ID = uuid.New()
	s.labs[lab.ID] = lab
	return lab, nil
}

func (s *stubLabRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Lab, error) {
	if lab, ok := s.labs[id]; ok {
		cpy := *lab
		return &cpy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLabRepo) ListAll(_ context.Context, _ pagination.Params) ([]models.Lab, int64, error) {
	out := make([]models.Lab, 0, len(s.labs))
	for _, lab := range s.labs {
		out = append(out, *lab)
	}
	return out, int64(len(out)), nil
}

func (s *stubLabRepo) ListForMember(_ context.Context, _ uuid.UUID, _ pagination.Params) ([]models.Lab, int64, error) {
	return nil, 0, nil
}

func (s *stubLabRepo) Update(_ context.Context, lab *models.Lab) error {
	s.labs[lab.ID] = lab
	return nil
}

func (s *stubLabRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.labs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.labs, id)
	return nil
}

type membershipKey struct {
	lab  uuid.UUID
	user uuid.UUID
}

type stubMembershipRepo struct {
	rows map[membershipKey]*models.LabMembership
}

func newStubMembershipRepo() *stubMembershipRepo {
	return &stubMembershipRepo{rows: map[membershipKey]*models.LabMembership{}}
}

func (s *stubMembershipRepo) GetMembership(_ context.Context, labID, userID uuid.UUID) (*models.LabMembership, error) {
	if m, ok := s.rows[membershipKey{labID, userID}]; ok {
		cpy := *m
		return &cpy, nil
	}
	return nil, nil
}

func (s *stubMembershipRepo) put(m *models.LabMembership) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.rows[membershipKey{m.LabID, m.UserID}] = m
}

func (s *stubMembershipRepo) Upsert(_ context.Context, m *models.LabMembership) (*models.LabMembership, error) {
	s.put(m)
	cpy := *m
	return &cpy, nil
}

func (s *stubMembershipRepo) UpsertWithTx(_ *gorm.DB, m *models.LabMembership) error {
	s.put(m)
	return nil
}

func (s *stubMembershipRepo) UpdateCapabilities(_ context.Context, labID, userID uuid.UUID, caps memberships.CapabilitiesDTO) (*models.LabMembership, error) {
	m, ok := s.rows[membershipKey{labID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.CanEditLab = caps.CanEditLab
	m.CanEditItems = caps.CanEditItems
	m.CanEditUsers = caps.CanEditUsers
	cpy := *m
	return &cpy, nil
}

func (s *stubMembershipRepo) Delete(_ context.Context, labID, userID uuid.UUID) error {
	key := membershipKey{labID, userID}
	if _, ok := s.rows[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, key)
	return nil
}

func (s *stubMembershipRepo) ListLabMembers(_ context.Context, labID uuid.UUID) ([]memberships.LabMemberDTO, error) {
	var out []memberships.LabMemberDTO
	for _, m := range s.rows {
		if m.LabID == labID {
			out = append(out, memberships.LabMemberDTO{
				MembershipID: m.ID,
				LabID:        m.LabID,
				UserID:       m.UserID,
				CanEditLab:   m.CanEditLab,
				CanEditItems: m.CanEditItems,
				CanEditUsers: m.CanEditUsers,
			})
		}
	}
	return out, nil
}

type stubUsersRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUsersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc        Service
	labRepo    *stubLabRepo
	memberRepo *stubMembershipRepo
	usersRepo  *stubUsersRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	labRepo := newStubLabRepo()
	memberRepo := newStubMembershipRepo()
	usersRepo := newStubUsersRepo()
	svc, err := NewService(labRepo, memberRepo, usersRepo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, labRepo: labRepo, memberRepo: memberRepo, usersRepo: usersRepo}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateSeedsOwnerMembership(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}

	dto, err := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Photonics"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.OwnerID != owner.ID {
		t.Fatalf("owner not recorded: %+v", dto)
	}

	m, _ := f.memberRepo.GetMembership(context.Background(), dto.ID, owner.ID)
	if m == nil {
		t.Fatal("creator membership not seeded")
	}
	if !m.CanEditLab || !m.CanEditItems || !m.CanEditUsers {
		t.Fatalf("creator membership missing capabilities: %+v", m)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetByID(context.Background(), memberships.Actor{ID: uuid.New()}, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetByIDRequiresMembership(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	_, err := f.svc.GetByID(context.Background(), memberships.Actor{ID: uuid.New()}, lab.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := f.svc.GetByID(context.Background(), owner, lab.ID); err != nil {
		t.Fatalf("member read failed: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), memberships.Actor{ID: uuid.New(), Superuser: true}, lab.ID); err != nil {
		t.Fatalf("superuser read failed: %v", err)
	}
}

func TestUpdateRequiresEditLabCapability(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	viewer := memberships.Actor{ID: uuid.New()}
	f.memberRepo.put(&models.LabMembership{LabID: lab.ID, UserID: viewer.ID})

	name := "Renamed"
	_, err := f.svc.Update(context.Background(), viewer, lab.ID, UpdateLabInput{Name: &name})
	expectCode(t, err, pkgerrors.CodeForbidden)

	updated, err := f.svc.Update(context.Background(), owner, lab.ID, UpdateLabInput{Name: &name})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name not applied: %+v", updated)
	}
}

func TestAddMemberValidatesUser(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	_, err := f.svc.AddMember(context.Background(), owner, lab.ID, AddMemberInput{UserID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeNotFound)

	newUser := &models.User{ID: uuid.New(), Email: "new@example.com"}
	f.usersRepo.users[newUser.ID] = newUser

	dto, err := f.svc.AddMember(context.Background(), owner, lab.ID, AddMemberInput{
		UserID:       newUser.ID,
		Capabilities: memberships.CapabilitiesDTO{CanEditItems: true},
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if !dto.CanEditItems || dto.CanEditLab {
		t.Fatalf("capabilities not applied: %+v", dto)
	}
}

func TestAddMembersByEmailUpserts(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	alice := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	bob := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	f.usersRepo.users[alice.ID] = alice
	f.usersRepo.users[bob.ID] = bob

	dtos, err := f.svc.AddMembersByEmail(context.Background(), owner, lab.ID, AddMembersByEmailInput{
		Emails:       []string{"alice@example.com", "bob@example.com"},
		Capabilities: memberships.CapabilitiesDTO{CanEditItems: true},
	})
	if err != nil {
		t.Fatalf("add members: %v", err)
	}
	if len(dtos) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(dtos))
	}
	for _, dto := range dtos {
		if !dto.CanEditItems || dto.CanEditLab {
			t.Fatalf("capabilities not applied: %+v", dto)
		}
	}

	_, err = f.svc.AddMembersByEmail(context.Background(), owner, lab.ID, AddMembersByEmailInput{
		Emails: []string{"nobody@example.com"},
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestRemoveMemberMissingMembership(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	err := f.svc.RemoveMember(context.Background(), owner, lab.ID, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateMemberCapabilitiesRequiresEditUsers(t *testing.T) {
	f := newFixture(t)
	owner := memberships.Actor{ID: uuid.New()}
	lab, _ := f.svc.Create(context.Background(), owner, CreateLabInput{Name: "Optics"})

	itemsEditor := memberships.Actor{ID: uuid.New()}
	f.memberRepo.put(&models.LabMembership{LabID: lab.ID, UserID: itemsEditor.ID, CanEditItems: true})

	_, err := f.svc.UpdateMemberCapabilities(context.Background(), itemsEditor, lab.ID, owner.ID, memberships.CapabilitiesDTO{})
	expectCode(t, err, pkgerrors.CodeForbidden)

	dto, err := f.svc.UpdateMemberCapabilities(context.Background(), owner, lab.ID, itemsEditor.ID, memberships.CapabilitiesDTO{CanEditUsers: true})
	if err != nil {
		t.Fatalf("update capabilities: %v", err)
	}
	if !dto.CanEditUsers || dto.CanEditItems {
		t.Fatalf("capabilities not overwritten: %+v", dto)
	}
}
