package app

import (
	"github.com/gin-gonic/gin"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/server"
)

func wireRouter(log *logger.Logger, h Handlers, m Middleware) *gin.Engine {
	log.Info("Wiring router...")
	return server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthMiddleware:    m.Auth,
		VersionHandler:    h.Version,
		AnswerHandler:     h.Answer,
		GenerationHandler: h.Generation,
	})
}
