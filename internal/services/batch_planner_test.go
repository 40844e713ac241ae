package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type fakeAIClient struct {
	mu     sync.Mutex
	planFn func(user string) (map[string]any, error)
	textFn func(user string) (string, error)

	planCalls int
	textCalls int
}

func (f *fakeAIClient) GenerateJSON(_ context.Context, _ string, user string) (map[string]any, error) {
	f.mu.Lock()
	f.planCalls++
	fn := f.planFn
	f.mu.Unlock()
	if fn == nil {
		return map[string]any{"sufficient": true}, nil
	}
	return fn(user)
}

func (f *fakeAIClient) GenerateText(_ context.Context, _ string, user string) (string, error) {
	f.mu.Lock()
	f.textCalls++
	fn := f.textFn
	f.mu.Unlock()
	if fn == nil {
		return "generated answer", nil
	}
	return fn(user)
}

func testPlannerConfig() BatchPlannerConfig {
	cfg := DefaultBatchPlannerConfig()
	// Serial generation keeps sqlite-backed tests deterministic.
	cfg.Concurrency = 1
	return cfg
}

func (e *testEnv) newPlanner(ai OpenAIClient, cfg BatchPlannerConfig, limiter RateLimiter) BatchPlanner {
	return NewBatchPlanner(
		e.db,
		e.log,
		cfg,
		e.projects,
		e.questions,
		e.versions,
		e.answers,
		e.runs,
		e.lifecycle,
		e.snapshots,
		e.contextStore,
		limiter,
		DefaultPromptTemplates(),
		ai,
	)
}

func TestRunBatchOrderAndIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, questions := env.seedProject(t, userID, 3)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	ai := &fakeAIClient{
		textFn: func(user string) (string, error) {
			if strings.Contains(user, "Describe capability 2") {
				return "", errors.New("upstream 500")
			}
			return "generated answer", nil
		},
	}
	planner := env.newPlanner(ai, testPlannerConfig(), NewMemoryRateLimiter())

	results, err := planner.RunBatch(ctx, userID, version.ID)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != len(questions) {
		t.Fatalf("result count = %d, want %d", len(results), len(questions))
	}
	for i, q := range questions {
		if results[i].QuestionID != q.ID {
			t.Fatalf("results[%d].QuestionID = %s, want %s (template order)", i, results[i].QuestionID, q.ID)
		}
	}

	if results[1].ErrorCode != "serviceUnavailable" {
		t.Fatalf("failed item ErrorCode = %q, want serviceUnavailable", results[1].ErrorCode)
	}
	if results[1].Text != nil {
		t.Fatalf("failed item carries text %q", *results[1].Text)
	}
	for _, i := range []int{0, 2} {
		if results[i].ErrorCode != "" {
			t.Fatalf("results[%d].ErrorCode = %q, want success", i, results[i].ErrorCode)
		}
		if results[i].Text == nil || *results[i].Text != "generated answer" {
			t.Fatalf("results[%d].Text = %v, want generated answer", i, results[i].Text)
		}
	}
	if ai.planCalls != 1 {
		t.Fatalf("plan calls = %d, want exactly 1", ai.planCalls)
	}

	// Persisted state mirrors the per-item outcome.
	answers, _ := env.answers.GetByVersionID(ctx, nil, version.ID)
	byQuestion := make(map[uuid.UUID]*types.Answer)
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	for _, i := range []int{0, 2} {
		a := byQuestion[questions[i].ID]
		if a.Status != types.AnswerStatusDraft || a.Text == nil {
			t.Fatalf("generated answer %d not persisted as draft with text", i)
		}
		if len(a.GenerationContext) == 0 {
			t.Fatalf("generated answer %d missing generation context", i)
		}
	}
	failed := byQuestion[questions[1].ID]
	if failed.Status != types.AnswerStatusEmpty || failed.Text != nil {
		t.Fatalf("failed item mutated the answer: status=%q text=%v", failed.Status, failed.Text)
	}
	if len(failed.GenerationContext) != 0 {
		t.Fatalf("failed item attached a generation context")
	}
}

func TestRunBatchInsufficientPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 2)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	ai := &fakeAIClient{
		planFn: func(string) (map[string]any, error) {
			return map[string]any{"sufficient": false}, nil
		},
	}
	planner := env.newPlanner(ai, testPlannerConfig(), NewMemoryRateLimiter())

	if _, err := planner.RunBatch(ctx, userID, version.ID); !errors.Is(err, apperrors.ErrInsufficientContext) {
		t.Fatalf("RunBatch = %v, want ErrInsufficientContext", err)
	}
	if ai.textCalls != 0 {
		t.Fatalf("generation phase ran despite insufficient plan")
	}
}

func TestRunBatchNoSourceMaterial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	// Bare project: questions only, no profile, requirements or docs.
	project := &types.Project{ID: uuid.New(), UserID: userID, Name: "Empty"}
	if _, err := env.projects.Create(ctx, nil, []*types.Project{project}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := env.questions.Create(ctx, nil, []*types.Question{{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Title:     "Q1",
		Body:      "Anything",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	ai := &fakeAIClient{}
	planner := env.newPlanner(ai, testPlannerConfig(), NewMemoryRateLimiter())

	if _, err := planner.RunBatch(ctx, userID, version.ID); !errors.Is(err, apperrors.ErrInsufficientContext) {
		t.Fatalf("RunBatch = %v, want ErrInsufficientContext", err)
	}
	if ai.planCalls != 0 {
		t.Fatalf("planning call made with no source material")
	}
}

func TestRunBatchFrozenVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}
	if err := env.versions.Freeze(ctx, nil, version.ID); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	planner := env.newPlanner(&fakeAIClient{}, testPlannerConfig(), NewMemoryRateLimiter())
	if _, err := planner.RunBatch(ctx, userID, version.ID); !errors.Is(err, apperrors.ErrFrozenVersion) {
		t.Fatalf("RunBatch = %v, want ErrFrozenVersion", err)
	}
}

func TestStartBatchConflictWhileProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	release := make(chan struct{})
	ai := &fakeAIClient{
		planFn: func(string) (map[string]any, error) {
			<-release
			return map[string]any{"sufficient": true}, nil
		},
	}
	planner := env.newPlanner(ai, testPlannerConfig(), NewMemoryRateLimiter())

	run, err := planner.StartBatch(ctx, userID, version.ID)
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	if run.Status != types.RunStatusProcessing {
		t.Fatalf("run status = %q, want processing", run.Status)
	}

	// Second trigger while the first is in flight loses the claim.
	if _, err := planner.StartBatch(ctx, userID, version.ID); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("concurrent StartBatch = %v, want ErrConflict", err)
	}

	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := planner.GetRun(ctx, userID, version.ID)
		if err == nil && got != nil && got.Status == types.RunStatusDone {
			if len(got.Result) == 0 {
				t.Fatalf("finished run has no result payload")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished: last=%v err=%v", got, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A finished run slot can be reclaimed.
	again, err := planner.StartBatch(ctx, userID, version.ID)
	if err != nil {
		t.Fatalf("StartBatch after completion: %v", err)
	}
	if again.Status != types.RunStatusProcessing {
		t.Fatalf("reclaimed run status = %q, want processing", again.Status)
	}
	if again.Attempts < 2 {
		t.Fatalf("reclaimed run attempts = %d, want >= 2", again.Attempts)
	}
}

func TestStartBatchRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	cfg := testPlannerConfig()
	cfg.BatchMax = 0
	planner := env.newPlanner(&fakeAIClient{}, cfg, NewMemoryRateLimiter())

	if _, err := planner.StartBatch(ctx, userID, version.ID); !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("StartBatch = %v, want ErrRateLimited", err)
	}
	if run, _ := env.runs.GetByVersionID(ctx, nil, version.ID); run != nil {
		t.Fatalf("rate-limited trigger still claimed a run")
	}
}

func TestGenerateOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}
	answers, _ := env.answers.GetByVersionID(ctx, nil, version.ID)
	answerID := answers[0].ID

	cfg := testPlannerConfig()
	cfg.SingleMax = 1
	planner := env.newPlanner(&fakeAIClient{}, cfg, NewMemoryRateLimiter())

	answer, err := planner.GenerateOne(ctx, userID, answerID)
	if err != nil {
		t.Fatalf("GenerateOne: %v", err)
	}
	if answer.Text == nil || *answer.Text != "generated answer" {
		t.Fatalf("answer text = %v, want generated answer", answer.Text)
	}
	if answer.Status != types.AnswerStatusDraft {
		t.Fatalf("answer status = %q, want draft", answer.Status)
	}
	if len(answer.GenerationContext) == 0 {
		t.Fatalf("single generation did not attach a context")
	}

	// SingleMax is 1, so the second call in the same window is rejected.
	if _, err := planner.GenerateOne(ctx, userID, answerID); !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("second GenerateOne = %v, want ErrRateLimited", err)
	}
}

func TestGenerateOneFrozenVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}
	answers, _ := env.answers.GetByVersionID(ctx, nil, version.ID)

	if err := env.versions.Freeze(ctx, nil, version.ID); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	planner := env.newPlanner(&fakeAIClient{}, testPlannerConfig(), NewMemoryRateLimiter())
	if _, err := planner.GenerateOne(ctx, userID, answers[0].ID); !errors.Is(err, apperrors.ErrFrozenVersion) {
		t.Fatalf("GenerateOne on frozen version = %v, want ErrFrozenVersion", err)
	}
}

func TestStartBatchBudgetExpiryReleasesRunSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	// Planning call outlives the batch budget, so the run context is already
	// expired by the time the run finalizes.
	ai := &fakeAIClient{
		planFn: func(string) (map[string]any, error) {
			time.Sleep(200 * time.Millisecond)
			return nil, context.DeadlineExceeded
		},
	}
	cfg := testPlannerConfig()
	cfg.BatchBudget = 20 * time.Millisecond
	planner := env.newPlanner(ai, cfg, NewMemoryRateLimiter())

	if _, err := planner.StartBatch(ctx, userID, version.ID); err != nil {
		t.Fatalf("StartBatch: %v", err)
	}

	// The run must still settle into a terminal state instead of wedging in
	// processing.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := planner.GetRun(ctx, userID, version.ID)
		if err == nil && got != nil && got.Status == types.RunStatusError {
			if got.LastError == nil {
				t.Fatalf("failed run recorded no error message")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never settled: last=%v err=%v", got, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// And the slot is claimable again: no permanent conflict.
	again, err := planner.StartBatch(ctx, userID, version.ID)
	if err != nil {
		t.Fatalf("retrigger after budget expiry: %v", err)
	}
	if again.Status != types.RunStatusProcessing {
		t.Fatalf("retriggered run status = %q, want processing", again.Status)
	}
}
