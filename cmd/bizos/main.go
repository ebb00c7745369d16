package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizos/bizos/internal/app"
	"github.com/bizos/bizos/internal/audit"
	"github.com/bizos/bizos/internal/auth"
	"github.com/bizos/bizos/internal/guard"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/observability"
	"github.com/bizos/bizos/internal/platform/cache"
	"github.com/bizos/bizos/internal/platform/db"
	"github.com/bizos/bizos/internal/profiles"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/view"
	"github.com/bizos/bizos/internal/workspace"
	"github.com/bizos/bizos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	matrix, err := loadMatrix(cfg)
	if err != nil {
		logger.Error("load access matrix", slog.Any("error", err))
		os.Exit(1)
	}
	routes := app.Routes()
	if err := app.ValidateRoutes(routes, matrix); err != nil {
		logger.Error("validate routes", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.ValidateNavigation(routes, matrix); err != nil {
		logger.Error("validate navigation", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	profileRepo := profiles.NewRepository(dbpool)
	resolver := rbac.NewResolver(profileRepo,
		rbac.WithRoleCache(rbac.NewRoleCache(redisClient, cfg.AccessRoleCacheTTL)),
		rbac.WithResolverLogger(logger),
		rbac.WithResolverMetrics(rbac.NewResolverMetrics(metrics.Registerer())),
		rbac.WithLookupTimeout(cfg.AccessLookupTimeout),
	)
	access := rbac.Middleware{
		Resolver: resolver,
		Matrix:   matrix,
		Logger:   logger,
		Timeout:  cfg.AccessResolveTimeout,
	}
	accessGuard := &guard.Guard{
		Access:     access,
		Views:      templates,
		Metrics:    guard.NewMetrics(metrics.Registerer()),
		Logger:     logger,
		LoginPath:  cfg.AccessLoginPath,
		DeniedPath: cfg.AccessDeniedPath,
	}
	pages := &nav.Pages{Views: templates, Access: access, CSRF: csrfManager, Logger: logger}

	auditLogger := shared.NewAuditLogger(dbpool)

	authService := auth.NewService(auth.NewRepository(dbpool), resolver, logger)
	authHandler := auth.NewHandler(logger, authService, pages, sessionManager)

	profileService := profiles.NewService(profileRepo, resolver, auditLogger, logger)
	profileHandler := profiles.NewHandler(logger, profileService, pages)

	workspaceService := workspace.NewService(workspace.NewStore(redisClient, cfg.WorkspaceTTL), workspace.NewMembership(dbpool))
	workspaceHandler := workspace.NewHandler(logger, workspaceService, pages)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Pages:            pages,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Access:           access,
		Guard:            accessGuard,
		Routes:           routes,
		AuthHandler:      authHandler,
		ProfilesHandler:  profileHandler,
		WorkspaceHandler: workspaceHandler,
		NavHandler:       nav.NewHandler(access),
		AccessHandler:    rbac.NewAccessHandler(access, csrfManager),
		AuditHandler:     audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("roles", len(matrix.Roles())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func loadMatrix(cfg *app.Config) (*rbac.Matrix, error) {
	if cfg.AccessMatrixPath == "" {
		return rbac.DefaultMatrix(), nil
	}
	return rbac.LoadMatrixFile(cfg.AccessMatrixPath)
}
