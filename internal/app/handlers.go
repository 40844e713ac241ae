package app

import (
	"github.com/quillhq/rfpdesk-backend/internal/handlers"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
)

type Handlers struct {
	Version    *handlers.VersionHandler
	Answer     *handlers.AnswerHandler
	Generation *handlers.GenerationHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Version:    handlers.NewVersionHandler(log, s.Lifecycle, s.Sync),
		Answer:     handlers.NewAnswerHandler(log, s.Answers, s.Staleness, s.Planner),
		Generation: handlers.NewGenerationHandler(log, s.Planner),
	}
}
