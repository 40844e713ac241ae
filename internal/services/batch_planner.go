package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type BatchPlannerConfig struct {
	RateWindow  time.Duration
	BatchMax    int
	SingleMax   int
	Concurrency int
	BatchBudget time.Duration
}

func DefaultBatchPlannerConfig() BatchPlannerConfig {
	return BatchPlannerConfig{
		RateWindow:  60 * time.Second,
		BatchMax:    5,
		SingleMax:   10,
		Concurrency: 4,
		BatchBudget: 15 * time.Minute,
	}
}

// PlanAllocation is the phase-1 slice assigned to one question.
type PlanAllocation struct {
	QuestionID   string `json:"question_id"`
	Focus        string `json:"focus"`
	TargetLength string `json:"target_length"`
}

// BatchItemResult reports one question's outcome. ErrorCode is empty on
// success; failures are isolated per item.
type BatchItemResult struct {
	QuestionID uuid.UUID `json:"question_id"`
	Text       *string   `json:"text,omitempty"`
	ErrorCode  string    `json:"error_code,omitempty"`
}

// BatchPlanner runs the two-phase plan-then-generate workflow over a
// version's answers, gated by the per-user rate limiter.
type BatchPlanner interface {
	// StartBatch admits, claims the version's run slot and returns
	// immediately; generation continues in the background. Best effort: a
	// process restart loses in-flight work.
	StartBatch(ctx context.Context, userID, versionID uuid.UUID) (*types.GenerationRun, error)
	// RunBatch is the synchronous two-phase workflow used by StartBatch's
	// background goroutine. Result order follows template question order.
	RunBatch(ctx context.Context, userID, versionID uuid.UUID) ([]BatchItemResult, error)
	GenerateOne(ctx context.Context, userID, answerID uuid.UUID) (*types.Answer, error)
	GetRun(ctx context.Context, userID, versionID uuid.UUID) (*types.GenerationRun, error)
}

type batchPlanner struct {
	db  *gorm.DB
	log *logger.Logger
	cfg BatchPlannerConfig

	projectRepo  repos.ProjectRepo
	questionRepo repos.QuestionRepo
	versionRepo  repos.AnswerVersionRepo
	answerRepo   repos.AnswerRepo
	runRepo      repos.GenerationRunRepo

	lifecycle    VersionLifecycleManager
	snapshots    SnapshotService
	contextStore GenerationContextStore
	limiter      RateLimiter
	templates    PromptTemplates
	ai           OpenAIClient
}

func NewBatchPlanner(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg BatchPlannerConfig,
	projectRepo repos.ProjectRepo,
	questionRepo repos.QuestionRepo,
	versionRepo repos.AnswerVersionRepo,
	answerRepo repos.AnswerRepo,
	runRepo repos.GenerationRunRepo,
	lifecycle VersionLifecycleManager,
	snapshots SnapshotService,
	contextStore GenerationContextStore,
	limiter RateLimiter,
	templates PromptTemplates,
	ai OpenAIClient,
) BatchPlanner {
	return &batchPlanner{
		db:           db,
		log:          baseLog.With("service", "BatchPlanner"),
		cfg:          cfg,
		projectRepo:  projectRepo,
		questionRepo: questionRepo,
		versionRepo:  versionRepo,
		answerRepo:   answerRepo,
		runRepo:      runRepo,
		lifecycle:    lifecycle,
		snapshots:    snapshots,
		contextStore: contextStore,
		limiter:      limiter,
		templates:    templates,
		ai:           ai,
	}
}

func (bp *batchPlanner) admit(ctx context.Context, userID uuid.UUID, kind string, max int) error {
	allowed, err := bp.limiter.Allow(ctx, kind+":"+userID.String(), bp.cfg.RateWindow, max)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%s generation for user %s: %w", kind, userID, apperrors.ErrRateLimited)
	}
	return nil
}

func (bp *batchPlanner) loadOwnedVersion(ctx context.Context, tx *gorm.DB, userID, versionID uuid.UUID) (*types.AnswerVersion, error) {
	version, err := bp.versionRepo.GetByID(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return nil, fmt.Errorf("version %s: %w", versionID, apperrors.ErrNotFound)
	}
	project, err := bp.projectRepo.GetByID(ctx, tx, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return version, nil
}

func (bp *batchPlanner) StartBatch(ctx context.Context, userID, versionID uuid.UUID) (*types.GenerationRun, error) {
	if err := bp.admit(ctx, userID, "batch", bp.cfg.BatchMax); err != nil {
		return nil, err
	}
	if _, err := bp.loadOwnedVersion(ctx, nil, userID, versionID); err != nil {
		return nil, err
	}
	if err := bp.lifecycle.AssertMutable(ctx, nil, versionID); err != nil {
		return nil, err
	}

	// A processing row older than the batch budget belongs to a crashed or
	// timed-out holder and may be taken over.
	run, acquired, err := bp.runRepo.Claim(ctx, nil, versionID, userID, bp.cfg.BatchBudget)
	if err != nil {
		return nil, fmt.Errorf("claim generation run: %w", err)
	}
	if !acquired {
		return run, fmt.Errorf("version %s: %w", versionID, apperrors.ErrConflict)
	}

	// Fire and forget: the caller's request context ends with the response,
	// so the background run gets its own budgeted context.
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), bp.cfg.BatchBudget)
		defer cancel()
		bp.executeRun(bgCtx, run, userID, versionID)
	}()

	return run, nil
}

func (bp *batchPlanner) executeRun(ctx context.Context, run *types.GenerationRun, userID, versionID uuid.UUID) {
	items, err := bp.RunBatch(ctx, userID, versionID)

	// Finalize on a fresh context: when the run died of budget exhaustion the
	// run context is already expired and would fail the Finish write too,
	// leaving the row stuck in processing.
	finCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err != nil {
		msg := err.Error()
		bp.log.Warn("Batch generation failed", "version_id", versionID, "error", msg)
		if fErr := bp.runRepo.Finish(finCtx, nil, run.ID, types.RunStatusError, nil, &msg); fErr != nil {
			// Best-effort cleanup: logged, never re-thrown.
			bp.log.Error("Failed to record run error", "run_id", run.ID, "error", fErr)
		}
		return
	}

	generated, failed := 0, 0
	for _, item := range items {
		if item.ErrorCode == "" {
			generated++
		} else {
			failed++
		}
	}
	raw, _ := json.Marshal(map[string]any{
		"items":     items,
		"generated": generated,
		"failed":    failed,
	})
	if err := bp.runRepo.Finish(finCtx, nil, run.ID, types.RunStatusDone, datatypes.JSON(raw), nil); err != nil {
		bp.log.Error("Failed to record run result", "run_id", run.ID, "error", err)
	}
	bp.log.Info("Batch generation finished", "version_id", versionID, "generated", generated, "failed", failed)
}

func (bp *batchPlanner) RunBatch(ctx context.Context, userID, versionID uuid.UUID) ([]BatchItemResult, error) {
	version, err := bp.loadOwnedVersion(ctx, nil, userID, versionID)
	if err != nil {
		return nil, err
	}
	if err := bp.lifecycle.AssertMutable(ctx, nil, versionID); err != nil {
		return nil, err
	}

	snapshot, err := bp.snapshots.CurrentForProject(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, err
	}
	if snapshot.Counts.RequirementCount == 0 && snapshot.Counts.ReferenceDocCount == 0 && len(snapshot.ProfileFields) == 0 {
		return nil, fmt.Errorf("no source material for project %s: %w", version.ProjectID, apperrors.ErrInsufficientContext)
	}

	liveQuestions, err := bp.questionRepo.GetByProjectID(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	answers, err := bp.answerRepo.GetByVersionID(ctx, nil, versionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	answerByQuestion := make(map[uuid.UUID]*types.Answer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	// The group is every live question that has an answer slot in this
	// version; orphaned answers are skipped (sync analyzer territory).
	group := make([]*types.Question, 0, len(liveQuestions))
	for _, q := range liveQuestions {
		if _, ok := answerByQuestion[q.ID]; ok {
			group = append(group, q)
		}
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("version %s has no answers matching the live template: %w", versionID, apperrors.ErrValidation)
	}

	// Phase 1: one planning call for the whole group.
	planSystem, planUser := bp.templates.BuildPlanPrompt(snapshot, group)
	rawPlan, err := bp.ai.GenerateJSON(ctx, planSystem, planUser)
	if err != nil {
		return nil, fmt.Errorf("planning call: %w: %v", apperrors.ErrServiceUnavailable, err)
	}
	sufficient, allocations := parsePlan(rawPlan)
	if !sufficient {
		return nil, fmt.Errorf("planner judged source material insufficient: %w", apperrors.ErrInsufficientContext)
	}

	// Phase 2: per-question generation. Failures are isolated per item and
	// the result slice preserves template order regardless of completion
	// order.
	results := make([]BatchItemResult, len(group))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(bp.cfg.Concurrency)
	for i, question := range group {
		g.Go(func() error {
			results[i] = bp.generateItem(gCtx, snapshot, question, answerByQuestion[question.ID], allocations[question.ID.String()])
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (bp *batchPlanner) generateItem(ctx context.Context, snapshot *ProjectSnapshot, question *types.Question, answer *types.Answer, allocation PlanAllocation) BatchItemResult {
	result := BatchItemResult{QuestionID: question.ID}

	system, user := bp.templates.BuildAnswerPrompt(snapshot, question, allocation)
	text, err := bp.ai.GenerateText(ctx, system, user)
	if err != nil {
		bp.log.Warn("Answer generation failed", "question_id", question.ID, "error", err)
		result.ErrorCode = apperrors.Code(fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, err))
		return result
	}

	err = bp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bp.answerRepo.UpdateFields(ctx, tx, answer.ID, map[string]interface{}{
			"text":   text,
			"status": types.AnswerStatusDraft,
		}); err != nil {
			return fmt.Errorf("store answer text: %w", err)
		}
		return bp.contextStore.Attach(ctx, tx, answer.ID, snapshot.ContextFor(question.Body))
	})
	if err != nil {
		bp.log.Warn("Answer persist failed", "answer_id", answer.ID, "error", err)
		result.ErrorCode = apperrors.Code(err)
		return result
	}

	result.Text = &text
	return result
}

func (bp *batchPlanner) GenerateOne(ctx context.Context, userID, answerID uuid.UUID) (*types.Answer, error) {
	if err := bp.admit(ctx, userID, "single", bp.cfg.SingleMax); err != nil {
		return nil, err
	}

	answer, err := bp.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, apperrors.ErrNotFound)
	}
	version, err := bp.loadOwnedVersion(ctx, nil, userID, answer.VersionID)
	if err != nil {
		return nil, err
	}
	if err := bp.lifecycle.AssertMutable(ctx, nil, answer.VersionID); err != nil {
		return nil, err
	}
	question, err := bp.questionRepo.GetByID(ctx, nil, answer.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, fmt.Errorf("question for answer %s no longer exists: %w", answerID, apperrors.ErrNotFound)
	}

	snapshot, err := bp.snapshots.CurrentForProject(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, err
	}
	if snapshot.Counts.RequirementCount == 0 && snapshot.Counts.ReferenceDocCount == 0 && len(snapshot.ProfileFields) == 0 {
		return nil, fmt.Errorf("no source material for project %s: %w", version.ProjectID, apperrors.ErrInsufficientContext)
	}

	item := bp.generateItem(ctx, snapshot, question, answer, PlanAllocation{})
	if item.ErrorCode != "" {
		return nil, fmt.Errorf("generate answer %s: %w", answerID, codeToError(item.ErrorCode))
	}
	return bp.answerRepo.GetByID(ctx, nil, answerID)
}

func (bp *batchPlanner) GetRun(ctx context.Context, userID, versionID uuid.UUID) (*types.GenerationRun, error) {
	if _, err := bp.loadOwnedVersion(ctx, nil, userID, versionID); err != nil {
		return nil, err
	}
	return bp.runRepo.GetByVersionID(ctx, nil, versionID)
}

func parsePlan(raw map[string]any) (bool, map[string]PlanAllocation) {
	sufficient := true
	if v, ok := raw["sufficient"].(bool); ok {
		sufficient = v
	}
	allocations := make(map[string]PlanAllocation)
	list, _ := raw["allocations"].([]any)
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		alloc := PlanAllocation{}
		if s, ok := m["question_id"].(string); ok {
			alloc.QuestionID = s
		}
		if s, ok := m["focus"].(string); ok {
			alloc.Focus = s
		}
		if s, ok := m["target_length"].(string); ok {
			alloc.TargetLength = s
		}
		if alloc.QuestionID != "" {
			allocations[alloc.QuestionID] = alloc
		}
	}
	return sufficient, allocations
}

func codeToError(code string) error {
	switch code {
	case "validation":
		return apperrors.ErrValidation
	case "notFound":
		return apperrors.ErrNotFound
	case "unauthorized":
		return apperrors.ErrUnauthorized
	case "frozenVersion":
		return apperrors.ErrFrozenVersion
	case "rateLimitExceeded":
		return apperrors.ErrRateLimited
	case "insufficientContext":
		return apperrors.ErrInsufficientContext
	case "serviceUnavailable":
		return apperrors.ErrServiceUnavailable
	}
	return fmt.Errorf("generation failed: %s", code)
}
