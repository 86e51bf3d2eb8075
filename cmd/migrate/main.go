// Command migrate applies the database schema and exits.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/database"
	"github.com/pageza/leanfeast/backend/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.LogDevelopment})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("all migrations applied successfully")
}
