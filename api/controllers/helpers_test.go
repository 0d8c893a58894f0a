package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// withRouteParams seeds chi URL params plus the authenticated user the same
// way the router middleware would.
func withRouteParams(r *http.Request, userID string, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for name, value := range params {
		routeCtx.URLParams.Add(name, value)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx)
	if userID != "" {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return r.WithContext(ctx)
}
