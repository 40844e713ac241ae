package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/types"
)

func TestCompare(t *testing.T) {
	env := newTestEnv(t)
	match := "aaaa000011112222"
	drift := "bbbb000011112222"

	stored := &types.GenerationContext{
		CompanyProfileHash: match,
		RequirementsHash:   match,
		ReferenceDocsHash:  match,
		QuestionHash:       match,
		GeneratedAt:        time.Now(),
	}

	cases := []struct {
		name        string
		stored      *types.GenerationContext
		current     CurrentFingerprints
		wantStale   bool
		wantChanged []types.Category
	}{
		{
			name:        "nil_stored_never_stale",
			stored:      nil,
			current:     CurrentFingerprints{CompanyProfile: &drift},
			wantStale:   false,
			wantChanged: []types.Category{},
		},
		{
			name:   "all_matching",
			stored: stored,
			current: CurrentFingerprints{
				CompanyProfile: &match,
				Requirements:   &match,
				ReferenceDocs:  &match,
				Question:       &match,
			},
			wantStale:   false,
			wantChanged: []types.Category{},
		},
		{
			name:   "requirements_changed",
			stored: stored,
			current: CurrentFingerprints{
				CompanyProfile: &match,
				Requirements:   &drift,
				ReferenceDocs:  &match,
				Question:       &match,
			},
			wantStale:   true,
			wantChanged: []types.Category{types.CategoryRequirements},
		},
		{
			name:   "nil_category_skipped_not_compared",
			stored: stored,
			current: CurrentFingerprints{
				CompanyProfile: &match,
				Requirements:   &match,
				ReferenceDocs:  &match,
			},
			wantStale:   false,
			wantChanged: []types.Category{},
		},
		{
			name:   "multiple_changes_all_reported",
			stored: stored,
			current: CurrentFingerprints{
				CompanyProfile: &drift,
				Requirements:   &match,
				ReferenceDocs:  &drift,
				Question:       &match,
			},
			wantStale:   true,
			wantChanged: []types.Category{types.CategoryCompanyProfile, types.CategoryReferenceDocs},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := env.staleness.Compare(tc.stored, tc.current)
			if got.IsStale != tc.wantStale {
				t.Fatalf("IsStale = %v, want %v", got.IsStale, tc.wantStale)
			}
			if len(got.ChangedCategories) != len(tc.wantChanged) {
				t.Fatalf("ChangedCategories = %v, want %v", got.ChangedCategories, tc.wantChanged)
			}
			for i, cat := range tc.wantChanged {
				if got.ChangedCategories[i] != cat {
					t.Fatalf("ChangedCategories[%d] = %v, want %v", i, got.ChangedCategories[i], cat)
				}
			}
		})
	}
}

func TestCheckAnswerNeverGenerated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, _ := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("create initial version: %v", err)
	}
	answers, err := env.answers.GetByVersionID(ctx, nil, version.ID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("load answers: %v (got %d)", err, len(answers))
	}

	report, err := env.staleness.CheckAnswer(ctx, userID, answers[0].ID)
	if err != nil {
		t.Fatalf("CheckAnswer: %v", err)
	}
	if report.Generated {
		t.Fatalf("never-generated answer reported as generated")
	}
	if report.Result.IsStale {
		t.Fatalf("never-generated answer reported stale")
	}
}

func TestCheckAnswerDetectsRequirementDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, questions := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("create initial version: %v", err)
	}
	answers, err := env.answers.GetByVersionID(ctx, nil, version.ID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("load answers: %v (got %d)", err, len(answers))
	}
	answerID := answers[0].ID

	snapshot, err := env.snapshots.CurrentForProject(ctx, nil, project.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := env.contextStore.Attach(ctx, nil, answerID, snapshot.ContextFor(questions[0].Body)); err != nil {
		t.Fatalf("attach context: %v", err)
	}

	report, err := env.staleness.CheckAnswer(ctx, userID, answerID)
	if err != nil {
		t.Fatalf("CheckAnswer: %v", err)
	}
	if report.Result.IsStale {
		t.Fatalf("fresh answer reported stale: %v", report.Result.ChangedCategories)
	}

	reqs, err := env.reqs.GetByProjectID(ctx, nil, project.ID)
	if err != nil || len(reqs) == 0 {
		t.Fatalf("load requirements: %v", err)
	}
	if err := env.reqs.UpdateFields(ctx, nil, reqs[0].ID, map[string]interface{}{
		"content": "99.99% availability with failover",
	}); err != nil {
		t.Fatalf("edit requirement: %v", err)
	}

	report, err = env.staleness.CheckAnswer(ctx, userID, answerID)
	if err != nil {
		t.Fatalf("CheckAnswer after edit: %v", err)
	}
	if !report.Result.IsStale {
		t.Fatalf("edited requirement not detected as stale")
	}
	if len(report.Result.ChangedCategories) != 1 || report.Result.ChangedCategories[0] != types.CategoryRequirements {
		t.Fatalf("ChangedCategories = %v, want [requirements]", report.Result.ChangedCategories)
	}
}

func TestCheckAnswerDeletedQuestionSkipsQuestionCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	project, questions := env.seedProject(t, userID, 1)

	version, err := env.lifecycle.CreateInitial(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("create initial version: %v", err)
	}
	answers, _ := env.answers.GetByVersionID(ctx, nil, version.ID)
	answerID := answers[0].ID

	snapshot, err := env.snapshots.CurrentForProject(ctx, nil, project.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := env.contextStore.Attach(ctx, nil, answerID, snapshot.ContextFor(questions[0].Body)); err != nil {
		t.Fatalf("attach context: %v", err)
	}

	if err := env.questions.Delete(ctx, nil, questions[0].ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}

	report, err := env.staleness.CheckAnswer(ctx, userID, answerID)
	if err != nil {
		t.Fatalf("CheckAnswer: %v", err)
	}
	for _, cat := range report.Result.ChangedCategories {
		if cat == types.CategoryQuestion {
			t.Fatalf("deleted question surfaced as question staleness")
		}
	}
}
