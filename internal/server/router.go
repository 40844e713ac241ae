package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quillhq/rfpdesk-backend/internal/handlers"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/middleware"
)

type RouterConfig struct {
	Log               *logger.Logger
	AuthMiddleware    *middleware.AuthMiddleware
	VersionHandler    *handlers.VersionHandler
	AnswerHandler     *handlers.AnswerHandler
	GenerationHandler *handlers.GenerationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestLogger(cfg.Log))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Versions
	api.POST("/projects/:id/versions", cfg.VersionHandler.CreateInitial)
	api.GET("/versions/:id", cfg.VersionHandler.Get)
	api.GET("/versions/:id/sync", cfg.VersionHandler.Sync)
	api.POST("/versions/:id/clone", cfg.VersionHandler.Clone)
	// Generation
	api.POST("/versions/:id/generate", cfg.GenerationHandler.StartBatch)
	api.GET("/versions/:id/generation", cfg.GenerationHandler.GetRun)
	// Answers
	api.PUT("/answers/:id", cfg.AnswerHandler.Update)
	api.GET("/answers/:id/staleness", cfg.AnswerHandler.Staleness)
	api.POST("/answers/:id/generate", cfg.AnswerHandler.Generate)

	return router
}
