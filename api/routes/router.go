package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labstock/labstock-backend/api/controllers"
	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/internal/auth"
	"github.com/labstock/labstock-backend/internal/borrowings"
	"github.com/labstock/labstock-backend/internal/items"
	"github.com/labstock/labstock-backend/internal/labs"
	"github.com/labstock/labstock-backend/internal/users"
	"github.com/labstock/labstock-backend/pkg/auth/session"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/metrics"
	"github.com/labstock/labstock-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	Auth       auth.Service
	Users      users.Service
	Labs       labs.Service
	Items      items.Service
	Borrowings borrowings.Service
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
			middleware.Idempotency(d.Redis, logg),
		).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, d.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(d.Users, logg))
			r.Patch("/me", controllers.UsersUpdateMe(d.Users, logg))
			r.Put("/me/password", controllers.UsersChangePassword(d.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSuperuser(logg))
				r.Get("/", controllers.UsersList(d.Users, logg))
				r.Delete("/{userID}", controllers.UsersDelete(d.Users, logg))
			})
		})

		r.Route("/labs", func(r chi.Router) {
			r.Get("/", controllers.LabsList(d.Labs, logg))
			r.Post("/", controllers.LabsCreate(d.Labs, logg))

			r.Route("/{labID}", func(r chi.Router) {
				r.Get("/", controllers.LabsGet(d.Labs, logg))
				r.Put("/", controllers.LabsUpdate(d.Labs, logg))
				r.Delete("/", controllers.LabsDelete(d.Labs, logg))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.LabUsersList(d.Labs, logg))
					r.Post("/", controllers.LabUsersAdd(d.Labs, logg))
					r.Delete("/", controllers.LabUsersRemove(d.Labs, logg))
					r.Put("/permissions", controllers.LabUsersUpdatePermissions(d.Labs, logg))
				})

				r.Route("/items", func(r chi.Router) {
					r.Get("/", controllers.ItemsList(d.Items, logg))
					r.Post("/", controllers.ItemsCreate(d.Items, logg))

					r.Route("/{itemID}", func(r chi.Router) {
						r.Get("/", controllers.ItemsGet(d.Items, logg))
						r.Put("/", controllers.ItemsUpdate(d.Items, logg))
						r.Delete("/", controllers.ItemsDelete(d.Items, logg))

						r.Route("/borrowings", func(r chi.Router) {
							r.Get("/", controllers.BorrowingsList(d.Borrowings, logg))
							r.Post("/", controllers.BorrowingsCreate(d.Borrowings, logg))

							r.Route("/{borrowID}", func(r chi.Router) {
								r.Get("/", controllers.BorrowingsGet(d.Borrowings, logg))
								r.Put("/", controllers.BorrowingsReturn(d.Borrowings, logg))
								r.Delete("/", controllers.BorrowingsDelete(d.Borrowings, logg))
							})
						})
					})
				})
			})
		})
	})

	return r
}
