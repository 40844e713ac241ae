package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/repos/testutil"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type testEnv struct {
	db  *gorm.DB
	log *logger.Logger

	projects  repos.ProjectRepo
	profiles  repos.CompanyProfileRepo
	reqs      repos.RequirementRepo
	docs      repos.ReferenceDocRepo
	questions repos.QuestionRepo
	versions  repos.AnswerVersionRepo
	answers   repos.AnswerRepo
	runs      repos.GenerationRunRepo

	snapshots    SnapshotService
	lifecycle    VersionLifecycleManager
	contextStore GenerationContextStore
	staleness    StalenessDetector
	sync         SyncAnalyzer
	answerSvc    AnswerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	env := &testEnv{
		db:        gdb,
		log:       log,
		projects:  repos.NewProjectRepo(gdb, log),
		profiles:  repos.NewCompanyProfileRepo(gdb, log),
		reqs:      repos.NewRequirementRepo(gdb, log),
		docs:      repos.NewReferenceDocRepo(gdb, log),
		questions: repos.NewQuestionRepo(gdb, log),
		versions:  repos.NewAnswerVersionRepo(gdb, log),
		answers:   repos.NewAnswerRepo(gdb, log),
		runs:      repos.NewGenerationRunRepo(gdb, log),
	}
	env.snapshots = NewSnapshotService(log, env.profiles, env.reqs, env.docs)
	env.lifecycle = NewVersionLifecycleManager(gdb, log, env.projects, env.questions, env.versions, env.answers)
	env.contextStore = NewGenerationContextStore(log, env.answers, env.lifecycle)
	env.staleness = NewStalenessDetector(log, env.answers, env.versions, env.projects, env.questions, env.snapshots, env.contextStore)
	env.sync = NewSyncAnalyzer(log, env.projects, env.questions, env.versions, env.answers)
	env.answerSvc = NewAnswerService(log, env.answers, env.versions, env.projects, env.lifecycle)
	return env
}

func (e *testEnv) seedProject(t *testing.T, userID uuid.UUID, questionCount int) (*types.Project, []*types.Question) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	project := &types.Project{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "Acme RFP",
	}
	if _, err := e.projects.Create(ctx, nil, []*types.Project{project}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	fields, _ := json.Marshal(map[string]*string{"company_name": strptr("Acme Corp")})
	if _, err := e.profiles.Upsert(ctx, nil, &types.CompanyProfile{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Fields:    datatypes.JSON(fields),
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if _, err := e.reqs.Create(ctx, nil, []*types.Requirement{{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Title:     "Uptime",
		Content:   "99.9% availability",
	}}); err != nil {
		t.Fatalf("seed requirement: %v", err)
	}
	if _, err := e.docs.Create(ctx, nil, []*types.ReferenceDoc{{
		ID:            uuid.New(),
		ProjectID:     project.ID,
		FileName:      "security.pdf",
		ExtractedText: "SOC2 type II certified",
	}}); err != nil {
		t.Fatalf("seed reference doc: %v", err)
	}

	questions := make([]*types.Question, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		questions = append(questions, &types.Question{
			ID:         uuid.New(),
			ProjectID:  project.ID,
			Title:      fmt.Sprintf("Question %d", i+1),
			Body:       fmt.Sprintf("Describe capability %d", i+1),
			OrderIndex: i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if _, err := e.questions.Create(ctx, nil, questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	return project, questions
}

func strptr(s string) *string { return &s }
