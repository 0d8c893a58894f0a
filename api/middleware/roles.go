package middleware

import (
	"net/http"

	"github.com/labstock/labstock-backend/api/responses"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// RequireSuperuser rejects requests whose authenticated user lacks the superuser flag.
func RequireSuperuser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SuperuserFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not enough permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
