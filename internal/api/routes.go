package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with logging, recovery and CORS middleware and
// registers every route.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	registerValidation()

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(RequestLogger(h.logger), Recovery(h.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.NoRoute(h.NotFound)

	SetupRoutes(router, h)
	return router
}

func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", h.Home)

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/companies", h.ListCompanies)
		api.GET("/companies/:slug", h.GetCompany)
		api.GET("/projects", h.ListProjects)
		api.GET("/projects/:id", h.GetProject)
		api.GET("/units", h.ListUnits)
		api.GET("/units/:id", h.GetUnit)
		api.GET("/uploads/:filename", h.ServeUpload)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/register", h.RequireAdmin(), h.Register)
		authGroup.GET("/verify", h.RequireAccess(), h.Verify)
		authGroup.POST("/logout", h.RequireAccess(), h.Logout)
	}

	admin := api.Group("", h.RequireAdmin())
	{
		admin.POST("/companies", h.CreateCompany)
		admin.PUT("/companies/:id", h.UpdateCompany)
		admin.DELETE("/companies/:id", h.DeleteCompany)

		admin.POST("/projects", h.CreateProject)
		admin.PUT("/projects/:id", h.UpdateProject)
		admin.DELETE("/projects/:id", h.DeleteProject)
		admin.POST("/projects/:id/upload", h.UploadProjectImages)

		admin.POST("/units", h.CreateUnit)
		admin.PUT("/units/:id", h.UpdateUnit)
		admin.DELETE("/units/:id", h.DeleteUnit)
		admin.POST("/units/:id/upload", h.UploadUnitFiles)

		admin.POST("/upload", h.UploadFile)
	}
}
