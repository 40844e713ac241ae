package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/services"
)

type Services struct {
	Snapshots    services.SnapshotService
	Lifecycle    services.VersionLifecycleManager
	ContextStore services.GenerationContextStore
	Staleness    services.StalenessDetector
	Sync         services.SyncAnalyzer
	Answers      services.AnswerService
	Planner      services.BatchPlanner
	Limiter      services.RateLimiter
	OpenAI       services.OpenAIClient
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	var limiter services.RateLimiter
	if os.Getenv("REDIS_ADDR") != "" {
		limiter, err = services.NewRedisRateLimiter(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis rate limiter: %w", err)
		}
	} else {
		log.Info("REDIS_ADDR not set, using in-process rate limiter")
		limiter = services.NewMemoryRateLimiter()
	}

	templates, err := services.LoadPromptTemplates(cfg.PromptTemplatesPath)
	if err != nil {
		return Services{}, fmt.Errorf("load prompt templates: %w", err)
	}

	snapshots := services.NewSnapshotService(log, r.CompanyProfile, r.Requirement, r.ReferenceDoc)
	lifecycle := services.NewVersionLifecycleManager(db, log, r.Project, r.Question, r.AnswerVersion, r.Answer)
	contextStore := services.NewGenerationContextStore(log, r.Answer, lifecycle)
	staleness := services.NewStalenessDetector(log, r.Answer, r.AnswerVersion, r.Project, r.Question, snapshots, contextStore)
	sync := services.NewSyncAnalyzer(log, r.Project, r.Question, r.AnswerVersion, r.Answer)
	answers := services.NewAnswerService(log, r.Answer, r.AnswerVersion, r.Project, lifecycle)
	planner := services.NewBatchPlanner(
		db,
		log,
		cfg.Planner,
		r.Project,
		r.Question,
		r.AnswerVersion,
		r.Answer,
		r.GenerationRun,
		lifecycle,
		snapshots,
		contextStore,
		limiter,
		templates,
		openaiClient,
	)

	return Services{
		Snapshots:    snapshots,
		Lifecycle:    lifecycle,
		ContextStore: contextStore,
		Staleness:    staleness,
		Sync:         sync,
		Answers:      answers,
		Planner:      planner,
		Limiter:      limiter,
		OpenAI:       openaiClient,
	}, nil
}
