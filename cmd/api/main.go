package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/genesoft/portal-backend/api/routes"
	"github.com/genesoft/portal-backend/internal/admin"
	"github.com/genesoft/portal-backend/internal/audit"
	"github.com/genesoft/portal-backend/internal/auth"
	"github.com/genesoft/portal-backend/internal/authz"
	"github.com/genesoft/portal-backend/internal/dashboard"
	"github.com/genesoft/portal-backend/internal/identities"
	product "github.com/genesoft/portal-backend/internal/products"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/internal/tickets"
	"github.com/genesoft/portal-backend/pkg/auth/session"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/metrics"
	"github.com/genesoft/portal-backend/pkg/migrate"
	"github.com/genesoft/portal-backend/pkg/redis"
	"github.com/genesoft/portal-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: cfg.Service.Name,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}
	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		return err
	}
	identityProvider, err := identities.NewProvider(dbClient, hasher)
	if err != nil {
		return err
	}
	profileService, err := profiles.NewService(dbClient)
	if err != nil {
		return err
	}

	auditLogger, err := audit.NewLogger(audit.LoggerParams{
		DB:           dbClient,
		Logger:       logg,
		Metrics:      metrics.NewAuditMetrics(registry),
		WriteTimeout: cfg.Audit.WriteTimeout,
	})
	if err != nil {
		return err
	}
	activityService, err := audit.NewService(dbClient)
	if err != nil {
		return err
	}

	resolver, err := auth.NewResolver(auth.ResolverParams{
		JWTConfig:  cfg.JWT,
		CookieName: cfg.Session.CookieName,
		Sessions:   sessionManager,
		Identities: identityProvider,
	})
	if err != nil {
		return err
	}
	authorizer, err := authz.NewAuthorizer(resolver, profileService)
	if err != nil {
		return err
	}
	gate := authz.NewGate(resolver, profileService, metrics.NewGateMetrics(registry))

	authService, err := auth.NewService(auth.ServiceParams{
		Identities:     identityProvider,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	executor, err := admin.NewExecutor(admin.ExecutorParams{
		Identities: identityProvider,
		Profiles:   profileService,
		Sessions:   sessionManager,
		Audit:      auditLogger,
		Metrics:    metrics.NewElevatedActionMetrics(registry),
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	productService, err := product.NewService(dbClient, auditLogger)
	if err != nil {
		return err
	}
	ticketService, err := tickets.NewService(dbClient, auditLogger)
	if err != nil {
		return err
	}
	dashboardService, err := dashboard.NewService(dbClient, activityService)
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		DBPinger:    dbClient,
		Redis:       redisClient,
		Registry:    registry,
		Gate:        gate,
		Authorizer:  authorizer,
		Executor:    executor,
		AuthService: authService,
		AuditLogger: auditLogger,
		Activity:    activityService,
		Products:    productService,
		Tickets:     ticketService,
		Profiles:    profileService,
		Dashboard:   dashboardService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
