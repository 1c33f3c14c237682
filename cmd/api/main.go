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

	"github.com/noah-isme/compass-api/internal/config"
	"github.com/noah-isme/compass-api/internal/database"
	"github.com/noah-isme/compass-api/internal/handler"
	"github.com/noah-isme/compass-api/internal/middleware"
	"github.com/noah-isme/compass-api/internal/repository"
	"github.com/noah-isme/compass-api/internal/router"
	"github.com/noah-isme/compass-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "compass-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Redis and NATS are optional: without them results are served uncached and no
	// events are published.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, results cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, assessment events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	catalogRepo := repository.NewCatalogRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	catalogService := service.NewCatalogService(catalogRepo, validate, service.CatalogSeedOptions{
		Enabled: cfg.SeedEnabled,
		Token:   cfg.SeedToken,
	}, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	assessmentService := service.NewAssessmentService(service.AssessmentDependencies{
		Submissions: submissionRepo,
		Assessments: assessmentRepo,
		Catalog:     catalogService,
		Rubric:      catalogRepo,
		Resolver:    service.NewSubmissionResolver(catalogRepo, studentRepo),
		Activity:    activityService,
		Events:      service.NewNATSEventPublisher(natsConn, cfg.NATSSubject),
		Cache:       redisClient,
	}, validate, logger)
	reader := service.NewAssessmentReader(assessmentRepo, studentRepo, redisClient, cfg.ResultsCacheTTL, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(assessmentService, logger),
		ResultsHandler:    handler.NewResultsHandler(reader, logger),
		CatalogHandler:    handler.NewCatalogHandler(catalogService, logger),
		SeedHandler:       handler.NewSeedHandler(catalogService, logger),
		HealthProbes:      probes,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		AssessLimiter:     middleware.RateLimit("assess", cfg.AssessRateLimitMax, cfg.AssessRateWindow),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
