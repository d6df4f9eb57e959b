package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/velvetqueue/internal/api/handlers"
	"github.com/maheshrc27/velvetqueue/internal/api/middleware"
	"github.com/maheshrc27/velvetqueue/internal/database"
	job "github.com/maheshrc27/velvetqueue/internal/jobs"
	"github.com/maheshrc27/velvetqueue/internal/queue"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const tokenRefreshInterval = 10 * time.Minute

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.PostgresURI)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	postRepo := repository.NewPostRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	postingHistoryRepo := repository.NewPostingHistoryRepository(db)

	uploader, err := service.NewUploader(ctx, cfg)
	if err != nil {
		return err
	}
	if uploader == nil {
		slog.Warn("no image host configured, local media needs a public PUBLIC_BASE_URL")
	}

	credentialService := service.NewCredentialService(cfg, channelRepo)
	instagramService := service.NewInstagramService(cfg.Instagram)
	mediaService := service.NewMediaService(cfg, uploader)
	publishService := service.NewPublishService(postRepo, mediaAssetRepo, postingHistoryRepo, credentialService, mediaService, instagramService, cfg.Instagram.SettleWait)
	postService := service.NewPostService(postRepo, postingHistoryRepo, cfg.Location())
	channelService := service.NewChannelService(channelRepo, credentialService)
	assetService := service.NewAssetService(mediaAssetRepo)

	var (
		client      *asynq.Client
		asynqServer *asynq.Server
		enqueuer    queue.Enqueuer
	)
	if cfg.RedisURI != "" {
		redisConn, err := redisOpt(cfg.RedisURI)
		if err != nil {
			return err
		}
		client = asynq.NewClient(redisConn)
		defer client.Close()
		enqueuer = client

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
		})
		mux := queue.NewQueue(publishService).NewServeMux()
		if err := asynqServer.Start(mux); err != nil {
			return fmt.Errorf("could not start asynq server: %w", err)
		}
		slog.Info("async publish queue started")
	}

	scheduler := job.NewScheduler(postRepo, publishService, cfg.Scheduler.Enabled, cfg.Scheduler.Interval, cfg.Scheduler.Backoff)
	if cfg.Scheduler.TokenRefreshEnabled {
		refreshTokenJob := job.NewTokenRefreshJob(credentialService, instagramService)
		scheduler.Every("token-refresh", tokenRefreshInterval, refreshTokenJob.RefreshTokens)
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			slog.Error("unhandled request error", "path", c.Path(), "err", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	health := handlers.NewHealthHandler(db, scheduler.Running)
	app.Get("/healthz", health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	if !authMiddleware.Enabled() {
		slog.Warn("OPERATOR_API_KEY and SECRET_KEY are unset, the API is unauthenticated")
	}

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	handlers.Handlers{
		Posts:     handlers.NewPostHandler(postService, publishService, enqueuer),
		Approvals: handlers.NewApprovalHandler(postService),
		Channels:  handlers.NewChannelHandler(channelService),
		Assets:    handlers.NewAssetHandler(assetService),
	}.Register(api)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()
	slog.Info("server is running", "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			slog.Error("server stopped", "err", err)
		}
	}

	gracefulShutdown(app, scheduler, asynqServer)
	return nil
}

// redisOpt accepts either a redis:// URI or a bare host:port.
func redisOpt(uri string) (asynq.RedisConnOpt, error) {
	if !strings.Contains(uri, "://") {
		return asynq.RedisClientOpt{Addr: uri}, nil
	}
	opt, err := asynq.ParseRedisURI(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URI: %w", err)
	}
	return opt, nil
}

func gracefulShutdown(app *fiber.App, scheduler *job.Scheduler, asynqServer *asynq.Server) {
	slog.Info("shutting down server")

	// The scheduler finishes the post it is on before returning.
	select {
	case <-scheduler.Stop().Done():
	case <-time.After(2 * time.Minute):
		slog.Warn("scheduler did not stop in time")
	}

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("failed to shut down server", "err", err)
	}

	if asynqServer != nil {
		asynqServer.Shutdown()
	}

	slog.Info("server shutdown complete")
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "err", err)
		return
	}
	slog.Info("database connection closed")
}
