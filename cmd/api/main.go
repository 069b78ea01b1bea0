package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/config"
	"github.com/noah-isme/gema-overview-api/internal/database"
	"github.com/noah-isme/gema-overview-api/internal/handler"
	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
	"github.com/noah-isme/gema-overview-api/internal/router"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/pkg/h5p"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	probes := map[string]handler.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis url not set, unread counts are cached per process only")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	packages, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open package store")
	}
	inspector, err := h5p.NewInspector()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build h5p inspector")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	settings := overview.ForumSettings{AllowForcedReadTracking: cfg.Forum.AllowForcedReadTracking}

	forumRepo := repository.NewForumRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	h5pRepo := repository.NewH5PRepository(db)

	tracker := service.NewReadTracker(forumRepo, redisClient, natsConn, service.ReadTrackerConfig{
		OldPostWindow: cfg.Forum.OldPostWindow(),
		TTL:           cfg.UnreadCacheTTL,
		Subject:       cfg.EventsSubject,
	}, logger)
	tracker.Start(ctx)

	factory := service.NewOverviewFactory(service.OverviewDeps{
		Forums:   forumRepo,
		H5P:      h5pRepo,
		Courses:  courseRepo,
		Tracker:  tracker,
		Packages: service.NewPackageTyper(packages, inspector),
		Settings: settings,
		Logger:   logger,
	})

	overviewService := service.NewOverviewService(courseRepo, factory, logger)
	forumService := service.NewForumService(forumRepo, courseRepo, tracker, settings, validate, logger)
	h5pService := service.NewH5PService(h5pRepo, courseRepo, packages, inspector, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    storage.MaxPackageBytes + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		OverviewHandler:   handler.NewOverviewHandler(overviewService, logger),
		ForumHandler:      handler.NewForumHandler(forumService, validate, logger),
		H5PHandler:        handler.NewH5PHandler(h5pService, logger),
		AdminCacheHandler: handler.NewAdminCacheHandler(tracker, logger),
		HealthProbes:      probes,
		AuthMiddleware:    middleware.Authenticate(cfg.JWTSecret),
		WriteLimiter:      middleware.RateLimit("writes", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(app, logger)
}

func shutdown(app *fiber.App, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
