package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/internal/memberships"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

// actorFromRequest rebuilds the authorization actor from the context seeded
// by the auth middleware.
func actorFromRequest(r *http.Request) (memberships.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return memberships.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return memberships.Actor{
		ID:        id,
		Superuser: middleware.SuperuserFromContext(r.Context()),
	}, nil
}

func currentUserID(r *http.Request) (uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	return actor.ID, nil
}
