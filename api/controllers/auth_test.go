package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/internal/auth"
	"github.com/labstock/labstock-backend/internal/users"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

type stubAuthService struct {
	registered *auth.RegisterResultDTO
	pair       *auth.TokenPairDTO
	err        error

	loggedOut []string
}

func (s *stubAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.RegisterResultDTO, error) {
	return s.registered, s.err
}

func (s *stubAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.TokenPairDTO, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, input auth.RefreshInput) (*auth.TokenPairDTO, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return s.err
}

func TestAuthRegisterSuccess(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "new@lab.dev", FullName: "New User", IsActive: true}
	handler := AuthRegister(&stubAuthService{registered: &auth.RegisterResultDTO{User: user}}, testLogger())

	body := []byte(`{"email":"new@lab.dev","password":"Secret#123","full_name":"New User"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			User *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != user.Email {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestAuthRegisterInvalidPayload(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"who@lab.dev","password":"wrongpass1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLoginReturnsTokenPair(t *testing.T) {
	pair := &auth.TokenPairDTO{AccessToken: "access", RefreshToken: "refresh", TokenType: "bearer", ExpiresIn: 900}
	handler := AuthLogin(&stubAuthService{pair: pair}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"who@lab.dev","password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data auth.TokenPairDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.TokenType != "bearer" {
		t.Fatalf("unexpected token pair: %+v", envelope.Data)
	}
}

func TestAuthLogoutUsesSessionFromContext(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "session-jti"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "session-jti" {
		t.Fatalf("expected logout with session jti, got %v", svc.loggedOut)
	}
}

func TestAuthHandlersRejectNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	AuthLogin(nil, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
