package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/api"
	"github.com/pageza/leanfeast/backend/internal/database"
	"github.com/pageza/leanfeast/backend/internal/logger"
	"github.com/pageza/leanfeast/backend/internal/middleware"
	"github.com/pageza/leanfeast/backend/internal/router"
	"github.com/pageza/leanfeast/backend/internal/server"
	"github.com/pageza/leanfeast/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.LogDevelopment,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.New(cfg, log)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if redisClient, err = database.NewRedisClient(cfg, log); err != nil {
			log.Warn("redis unavailable, continuing without embedding cache and rate limiting", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	genaiClient, err := service.NewGenAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}

	embedder, err := service.NewEmbedder(genaiClient, cfg.EmbeddingModel, cfg.EmbeddingDimensions, redisClient, cfg.EmbeddingCacheTTL, log)
	if err != nil {
		return err
	}

	profiles := service.NewProfileService(db)
	recipes := service.NewRecipeService(db)
	index := service.NewPGVectorIndex(db, cfg.EmbeddingDimensions, service.DefaultQueryPolicy().WithLogger(log.Named("vector-index")))
	if db.Dialector.Name() != "postgres" {
		log.Warn("similarity search needs postgres with pgvector; reference recipes are disabled", zap.String("driver", cfg.DBDriver))
	}
	ranker := service.NewSimilarityRanker(embedder, index, profiles, log)

	textModel := service.NewGeminiModel(genaiClient, cfg.GenerationModel)
	producer := service.NewDraftProducer(textModel, service.DefaultDraftPolicy(), log)

	var analyzer service.NutritionAnalyzer
	if cfg.SpoonacularAPIKey != "" {
		analyzer = service.NewSpoonacularClient(cfg.SpoonacularBaseURL, cfg.SpoonacularAPIKey, cfg.SpoonacularRPS, log)
	} else {
		log.Warn("SPOONACULAR_API_KEY not set, nutrition constraints cannot be verified")
	}
	evaluator := service.NewNutritionEvaluator(analyzer, service.DefaultNutritionPolicy(), log)

	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to configure object storage: %w", err)
	}
	images := service.NewImageCompleter(
		service.NewPollinationsClient(cfg.PollinationsBaseURL, service.DefaultImagePolicy(), log),
		service.NewS3Storage(s3Config),
		recipes,
		service.ImageCompleterConfig{
			Workers:    cfg.ImageWorkers,
			QueueSize:  cfg.ImageQueueSize,
			JobTimeout: cfg.ImageJobTimeout,
		},
		log,
	)
	// jobs outlive the request and the shutdown signal; Stop drains them
	images.Start(context.WithoutCancel(ctx))

	svc := api.Services{
		Generation: service.NewGenerationService(profiles, ranker, producer, evaluator, recipes, images, log),
		Optimize:   service.NewOptimizeService(textModel, evaluator, service.DefaultDraftPolicy(), log),
		Replacer:   service.NewIngredientReplacer(textModel, recipes, profiles, evaluator, service.DefaultDraftPolicy(), log),
		Images:     recipes,
		Tokens:     service.NewTokenService(cfg.JWTSecret),
	}

	checks := []api.HealthCheck{{Name: "database", Check: func(ctx context.Context) error {
		return database.HealthCheck(ctx, db)
	}}}
	if redisClient != nil {
		svc.Limiter = middleware.NewGenerationRateLimiter(redisClient, cfg.GenerationLimit, cfg.GenerationWindow, log.Named("rate-limit"))
		checks = append(checks, api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	handler := router.SetupRouter(cfg, svc, api.NewHealthHandler(checks...), log)
	serveErr := server.New(cfg, handler, log).Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ImageJobTimeout+10*time.Second)
	defer cancel()
	if err := images.Stop(drainCtx); err != nil {
		log.Warn("image jobs abandoned at shutdown", zap.Error(err))
	}

	return serveErr
}
