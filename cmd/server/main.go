package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"realestate/server/config"
	"realestate/server/internal/api"
	"realestate/server/internal/auth"
	"realestate/server/internal/catalog"
	"realestate/server/internal/database"
	"realestate/server/internal/geocoding"
	"realestate/server/internal/storage"

	"github.com/gin-gonic/gin"
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
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	files, err := storage.NewStore(cfg.Uploads.Dir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize upload storage")
	}

	tokens := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authService := auth.NewService(db, tokens, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	created, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create admin user")
	}
	if created {
		logger.WithField("username", cfg.Auth.AdminUsername).Info("Created default admin user")
	}

	var geocoder catalog.Geocoder
	if cfg.Geocoding.Enabled {
		geocoder = geocoding.NewGeocoder(logger, geocoding.Options{
			BaseURL:     cfg.Geocoding.BaseURL,
			UserAgent:   cfg.Geocoding.UserAgent,
			CacheDir:    cfg.Geocoding.CacheDir,
			MinInterval: cfg.Geocoding.MinInterval,
		})
	}
	catalogService := catalog.NewService(db, files, geocoder, logger)

	if geocoder != nil {
		// Fill in coordinates for projects stored while geocoding was off
		go func() {
			if _, _, err := catalogService.GeocodeMissing(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Failed to geocode projects")
			}
		}()
	}

	handler := api.NewHandler(api.Options{
		Catalog:       catalogService,
		Auth:          authService,
		Files:         files,
		DB:            db,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        logger,
	})
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
