package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-security-service/internal/api/http"
	"github.com/spec-kit/blog-security-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-security-service/internal/audit"
	"github.com/spec-kit/blog-security-service/internal/auth"
	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/notification"
	"github.com/spec-kit/blog-security-service/internal/observability"
	"github.com/spec-kit/blog-security-service/internal/persistence"
	"github.com/spec-kit/blog-security-service/internal/repository"
	"github.com/spec-kit/blog-security-service/internal/service"
	"github.com/spec-kit/blog-security-service/internal/store"
	"github.com/spec-kit/blog-security-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	ephemeral := store.NewRedisStore(redis.Client)
	auditor := audit.NewLogRecorder(logger)

	users := repository.NewUserRepository(pg.PoolHandle())
	sender := notification.NewSMTPSender(cfg.Notification)

	confirmations := service.NewConfirmationService(cfg.Security, service.ConfirmationDependencies{
		Store:     ephemeral,
		Directory: users,
		Sender:    sender,
		Auditor:   auditor,
		Logger:    logger,
	})
	sessions := service.NewSessionService(cfg.Security, ephemeral, auditor, logger)
	rateLimiter := service.NewRateLimitService(cfg.RateLimit, ephemeral, metrics, logger)

	cleanupWorker := worker.NewCleanupWorker(cfg.Security, sessions, logger)
	cleanupWorker.Start(ctx)
	defer cleanupWorker.Stop()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Confirmations:  handlers.NewConfirmationHandler(confirmations),
		Sessions:       handlers.NewSessionHandler(sessions),
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
		SessionService: sessions,
		Logger:         logger,
	})

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
