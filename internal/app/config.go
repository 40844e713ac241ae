package app

import (
	"time"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/services"
	"github.com/quillhq/rfpdesk-backend/internal/utils"
)

type Config struct {
	JWTSecretKey        string
	PromptTemplatesPath string
	Planner             services.BatchPlannerConfig
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	promptTemplatesPath := utils.GetEnv("PROMPT_TEMPLATES_PATH", "", log)

	planner := services.DefaultBatchPlannerConfig()
	planner.RateWindow = time.Duration(utils.GetEnvAsInt("GENERATION_RATE_WINDOW_SECONDS", 60, log)) * time.Second
	planner.BatchMax = utils.GetEnvAsInt("GENERATION_BATCH_MAX_PER_WINDOW", 5, log)
	planner.SingleMax = utils.GetEnvAsInt("GENERATION_SINGLE_MAX_PER_WINDOW", 10, log)
	planner.Concurrency = utils.GetEnvAsInt("GENERATION_CONCURRENCY", 4, log)
	planner.BatchBudget = time.Duration(utils.GetEnvAsInt("GENERATION_BATCH_BUDGET_MINUTES", 15, log)) * time.Minute

	return Config{
		JWTSecretKey:        jwtSecretKey,
		PromptTemplatesPath: promptTemplatesPath,
		Planner:             planner,
	}
}
