// Command reindex embeds stored recipes into the similarity index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/database"
	"github.com/pageza/leanfeast/backend/internal/logger"
	"github.com/pageza/leanfeast/backend/internal/service"
)

func main() {
	force := flag.Bool("force", false, "Re-embed recipes that are already indexed")
	pageSize := flag.Int("page-size", 500, "Recipes loaded per page")
	concurrency := flag.Int("concurrency", 4, "Pages indexed concurrently")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.LogDevelopment})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := run(ctx, cfg, log, *force, *pageSize, *concurrency)
	if err != nil {
		log.Error("reindex failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("reindex complete",
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, force bool, pageSize, concurrency int) (service.IndexStats, error) {
	var stats service.IndexStats

	db, err := database.New(cfg, log)
	if err != nil {
		return stats, err
	}
	if db.Dialector.Name() != "postgres" {
		return stats, fmt.Errorf("reindex needs postgres with pgvector, got %s", cfg.DBDriver)
	}
	if err := database.RunMigrations(db, log); err != nil {
		return stats, fmt.Errorf("failed to run migrations: %w", err)
	}

	var genaiClient *genai.Client
	if cfg.EmbeddingModel != service.HashEmbeddingModel {
		if genaiClient, err = service.NewGenAIClient(ctx, cfg.GeminiAPIKey); err != nil {
			return stats, err
		}
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		if cache, err = database.NewRedisClient(cfg, log); err != nil {
			log.Warn("redis unavailable, embedding without cache", zap.Error(err))
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	embedder, err := service.NewEmbedder(genaiClient, cfg.EmbeddingModel, cfg.EmbeddingDimensions, cache, cfg.EmbeddingCacheTTL, log)
	if err != nil {
		return stats, err
	}

	recipes := service.NewRecipeService(db)
	index := service.NewPGVectorIndex(db, cfg.EmbeddingDimensions, service.DefaultQueryPolicy())
	indexer := service.NewRecipeIndexer(embedder, index, log)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for offset := 0; ; offset += pageSize {
		page, err := recipes.ListRecipes(gctx, offset, pageSize)
		if err != nil {
			_ = g.Wait()
			return stats, fmt.Errorf("failed to load recipes at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		log.Info("queueing page", zap.Int("offset", offset), zap.Int("size", len(page)))
		g.Go(func() error {
			pageStats, err := indexer.IndexRecipes(gctx, page, force)
			mu.Lock()
			stats.Add(pageStats)
			mu.Unlock()
			return err
		})

		if len(page) < pageSize {
			break
		}
	}

	err = g.Wait()
	return stats, err
}
