package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"realestate/server/config"
	"realestate/server/internal/catalog"
	"realestate/server/internal/database"
	"realestate/server/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.Infof("Seeding database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	files, err := storage.NewStore(cfg.Uploads.Dir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize upload storage")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seeded projects keep their location without coordinates; the server's
	// geocoding backfill fills them in when enabled.
	service := catalog.NewService(db, files, nil, logger)
	if _, err := service.Seed(ctx, catalog.DemoSeed()); err != nil {
		logger.WithError(err).Fatal("Failed to seed catalog")
	}
}
