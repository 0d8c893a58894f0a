package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/users"
	pkgauth "github.com/labstock/labstock-backend/pkg/auth"
	"github.com/labstock/labstock-backend/pkg/auth/session"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db"
	"github.com/labstock/labstock-backend/pkg/db/models"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/security"
)

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes account signup and the token lifecycle.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterResultDTO, error)
	Login(ctx context.Context, input LoginInput) (*TokenPairDTO, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPairDTO, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users    userRepository
	sessions sessionManager
	jwt      config.JWTConfig
	password config.PasswordConfig
	flags    config.FeatureFlagsConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(usersRepo userRepository, sessions sessionManager, jwt config.JWTConfig, password config.PasswordConfig, flags config.FeatureFlagsConfig) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		users:    usersRepo,
		sessions: sessions,
		jwt:      jwt,
		password: password,
		flags:    flags,
		now:      time.Now,
	}, nil
}

// RegisterInput captures an open-signup request.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginInput carries the credentials presented at login.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the expired (or still valid) access token together
// with the refresh token bound to its jti.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisterResultDTO, error) {
	if !s.flags.OpenSignup {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "signup is disabled")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FullName:     input.FullName,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &RegisterResultDTO{User: users.FromModel(user)}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*TokenPairDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not active")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPairDTO, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:      claims.UserID,
		IsSuperuser: claims.IsSuperuser,
		JTI:         newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return s.tokenPair(access, newRefresh), nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPairDTO, error) {
	accessID := session.NewAccessID()

	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:      user.ID,
		IsSuperuser: user.IsSuperuser,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return s.tokenPair(access, refresh), nil
}

func (s *service) tokenPair(access, refresh string) *TokenPairDTO {
	return &TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.jwt.ExpirationMinutes * 60,
	}
}
