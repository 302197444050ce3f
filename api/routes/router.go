package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genesoft/portal-backend/api/controllers"
	"github.com/genesoft/portal-backend/api/middleware"
	"github.com/genesoft/portal-backend/internal/admin"
	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/internal/auth"
	"github.com/genesoft/portal-backend/internal/authz"
	"github.com/genesoft/portal-backend/internal/dashboard"
	product "github.com/genesoft/portal-backend/internal/products"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/internal/tickets"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

// KeyValueStore is the part of the redis client the HTTP layer uses.
type KeyValueStore interface {
	middleware.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Deps lists everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	DBPinger pinger
	Redis    KeyValueStore
	Registry *prometheus.Registry

	Gate       *authz.Gate
	Authorizer *authz.Authorizer
	Executor   *admin.Executor

	AuthService auth.Service
	AuditLogger *audit.Logger
	Activity    *audit.Service
	Products    product.Service
	Tickets     tickets.Service
	Profiles    *profiles.Service
	Dashboard   *dashboard.Service
	Pages       controllers.PageRenderer
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	pages := d.Pages
	if pages == nil {
		pages = controllers.JSONPageRenderer{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.AuditClientIP(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	var redisPinger pinger
	if d.Redis != nil {
		redisPinger = d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, redisPinger))
	})

	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.With(middleware.CrawlerOnly(logg)).Get("/sitemap.xml", controllers.Sitemap(cfg.App.PublicURL, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Gate(d.Gate, logg))
		page := controllers.Page(pages, logg)
		r.Get("/", page)
		r.Get("/login", page)
		r.Get(authz.DashboardPath, page)
		r.Get(authz.DashboardPath+"/*", page)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/login", controllers.AuthLogin(d.AuthService, d.AuditLogger, cfg.Session, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, cfg.Session, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, cfg.Session, logg))
	})

	adminUsers := controllers.AdminUsersDeps{
		Authorizer: d.Authorizer,
		DB:         d.DB,
		Executor:   d.Executor,
		Logger:     logg,
	}

	r.Route("/api/admin", func(r chi.Router) {
		// The elevated endpoints run their own admin check so the grant
		// never leaves the handler. Keyed retries are re-checked before a
		// stored response is replayed.
		r.Group(func(r chi.Router) {
			r.Use(middleware.IdempotencyWithCaller(d.Redis, logg, middleware.AdminCaller(d.Authorizer)))
			r.Post("/create-user", controllers.AdminCreateUser(adminUsers))
			r.Post("/update-username", controllers.AdminUpdateUsername(adminUsers))
			r.Post("/update-password", controllers.AdminUpdatePassword(adminUsers))
			r.Delete("/delete-user", controllers.AdminDeleteUser(adminUsers))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Authorizer, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Get("/activity-logs", controllers.AdminActivityLogs(d.Activity, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.Authorizer, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Products, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Post("/", controllers.ProductCreate(d.Products, logg))
				r.Put("/{productId}", controllers.ProductUpdate(d.Products, logg))
				r.Delete("/{productId}", controllers.ProductDelete(d.Products, logg))
			})
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", controllers.TicketList(d.Tickets, logg))
			r.With(middleware.RequireRole(logg, enums.RoleClient)).
				Post("/", controllers.TicketCreate(d.Tickets, logg))
			r.With(middleware.RequireRole(logg, enums.RoleStaff, enums.RoleAdmin)).
				Patch("/{ticketId}", controllers.TicketUpdate(d.Tickets, logg))
			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).
				Delete("/{ticketId}", controllers.TicketDelete(d.Tickets, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(d.Profiles, logg))
			r.Patch("/me", controllers.ProfileUpdateMe(d.Profiles, logg))
		})

		r.With(middleware.RequireRole(logg, enums.RoleStaff, enums.RoleAdmin)).
			Get("/dashboard/stats", controllers.DashboardStats(d.Dashboard, logg))
	})

	return r
}
