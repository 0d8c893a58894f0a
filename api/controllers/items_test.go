package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/internal/items"
	"github.com/labstock/labstock-backend/internal/memberships"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
)

type stubItemsService struct {
	item *items.ItemDTO
	list []items.ItemDTO
	err  error

	createdIn items.CreateItemInput
	deleted   []uuid.UUID
}

func (s *stubItemsService) Create(ctx context.Context, actor memberships.Actor, labID uuid.UUID, input items.CreateItemInput) (*items.ItemDTO, error) {
	s.createdIn = input
	return s.item, s.err
}

func (s *stubItemsService) GetByID(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) (*items.ItemDTO, error) {
	return s.item, s.err
}

func (s *stubItemsService) ListByLab(ctx context.Context, actor memberships.Actor, labID uuid.UUID, page pagination.Params) ([]items.ItemDTO, int64, error) {
	return s.list, int64(len(s.list)), s.err
}

func (s *stubItemsService) Update(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID, input items.UpdateItemInput) (*items.ItemDTO, error) {
	return s.item, s.err
}

func (s *stubItemsService) Delete(ctx context.Context, actor memberships.Actor, labID, itemID uuid.UUID) error {
	s.deleted = append(s.deleted, itemID)
	return s.err
}

func TestItemsCreateSuccess(t *testing.T) {
	labID := uuid.New()
	userID := uuid.New()
	svc := &stubItemsService{item: &items.ItemDTO{ID: uuid.New(), LabID: labID, Name: "Oscilloscope", Quantity: 2}}
	handler := ItemsCreate(svc, testLogger())

	body := []byte(`{"name":"  Oscilloscope  ","quantity":2,"tags":["bench","scope"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/labs/"+labID.String()+"/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withRouteParams(req, userID.String(), map[string]string{"labID": labID.String()})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createdIn.Name != "Oscilloscope" {
		t.Fatalf("expected sanitized name, got %q", svc.createdIn.Name)
	}
	if len(svc.createdIn.Tags) != 2 {
		t.Fatalf("expected tags forwarded, got %v", svc.createdIn.Tags)
	}
}

func TestItemsCreateRequiresAuthenticatedUser(t *testing.T) {
	labID := uuid.New()
	handler := ItemsCreate(&stubItemsService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/labs/"+labID.String()+"/items", bytes.NewReader([]byte(`{"name":"Scope"}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withRouteParams(req, "", map[string]string{"labID": labID.String()})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestItemsGetInvalidLabID(t *testing.T) {
	handler := ItemsGet(&stubItemsService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/labs/not-a-uuid/items/"+uuid.NewString(), nil)
	req = withRouteParams(req, uuid.NewString(), map[string]string{
		"labID":  "not-a-uuid",
		"itemID": uuid.NewString(),
	})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestItemsListReturnsPage(t *testing.T) {
	labID := uuid.New()
	svc := &stubItemsService{list: []items.ItemDTO{
		{ID: uuid.New(), LabID: labID, Name: "Scope"},
		{ID: uuid.New(), LabID: labID, Name: "Multimeter"},
	}}
	handler := ItemsList(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/labs/"+labID.String()+"/items?skip=0&limit=10", nil)
	req = withRouteParams(req, uuid.NewString(), map[string]string{"labID": labID.String()})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Data  []items.ItemDTO `json:"data"`
			Count int64           `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 2 || len(envelope.Data.Data) != 2 {
		t.Fatalf("unexpected page: %+v", envelope.Data)
	}
}

func TestItemsDeleteForbidden(t *testing.T) {
	labID := uuid.New()
	itemID := uuid.New()
	svc := &stubItemsService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not enough permissions")}
	handler := ItemsDelete(svc, testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/labs/"+labID.String()+"/items/"+itemID.String(), nil)
	req = withRouteParams(req, uuid.NewString(), map[string]string{
		"labID":  labID.String(),
		"itemID": itemID.String(),
	})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != itemID {
		t.Fatalf("expected delete call for %s, got %v", itemID, svc.deleted)
	}
}
