package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"realestate/server/internal/auth"
	"realestate/server/internal/catalog"
	"realestate/server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Catalog *catalog.Service
	Auth    *auth.Service
	Files   *storage.Store
	DB      Pinger
	// PublicBaseURL prefixes file URLs in responses. Empty yields
	// root-relative URLs.
	PublicBaseURL string
	Logger        *logrus.Logger
}

type Handler struct {
	catalog *catalog.Service
	auth    *auth.Service
	files   *storage.Store
	db      Pinger
	views   *views
	logger  *logrus.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		catalog: opts.Catalog,
		auth:    opts.Auth,
		files:   opts.Files,
		db:      opts.DB,
		views:   &views{baseURL: strings.TrimRight(opts.PublicBaseURL, "/"), logger: logger},
		logger:  logger,
	}
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Real Estate API is running"})
}

func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			h.logger.WithError(err).Error("Database health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "Database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "API running"})
}
