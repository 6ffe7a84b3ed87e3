package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/doc-portal/internal/api/http"
	"github.com/spec-kit/doc-portal/internal/api/http/handlers"
	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/auth"
	"github.com/spec-kit/doc-portal/internal/config"
	"github.com/spec-kit/doc-portal/internal/events"
	"github.com/spec-kit/doc-portal/internal/observability"
	"github.com/spec-kit/doc-portal/internal/persistence"
	"github.com/spec-kit/doc-portal/internal/ratelimit"
	"github.com/spec-kit/doc-portal/internal/service"
	"github.com/spec-kit/doc-portal/internal/session"
	"github.com/spec-kit/doc-portal/internal/upload"
	"github.com/spec-kit/doc-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	stopAudit := worker.StartSessionAuditWorker(service.NewSessionAuditService(dispatcher, logger, metrics))
	defer stopAudit()

	backend := apiclient.New(cfg.Backend.BaseURL, cfg.Backend.Timeout(), apiclient.Dependencies{
		Logger:  logger,
		Metrics: metrics,
	})

	documentService := service.NewDocumentService(backend, upload.NewValidator(cfg.Upload.MaxBytes), logger)
	shareService := service.NewShareService(backend, cfg.App.PublicOrigin, logger)
	auditService := service.NewAuditService(backend)
	limiter := ratelimit.NewLoginLimiter(redis.Client, cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow(), logger)

	sessions := handlers.NewSessions(handlers.SessionsConfig{
		Backend:    backend,
		Dispatcher: dispatcher,
		Tokens:     auth.NewTokenInspector(),
		Logger:     logger,
		Cookie:     session.CookieOptions{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure},
		TTL:        cfg.Session.CookieTTL(),
	})

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend, redis),
		Auth:       handlers.NewAuthHandler(limiter),
		Documents:  handlers.NewDocumentsHandler(documentService, shareService),
		Shared:     handlers.NewSharedHandler(shareService),
		Audit:      handlers.NewAuditHandler(auditService),
		Sessions:   sessions,
		Metrics:    metrics,
		CookieName: cfg.Session.CookieName,
	})

	logger.Info("portal starting",
		zap.String("addr", cfg.App.Addr()),
		zap.String("backend", backend.BaseURL()))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
