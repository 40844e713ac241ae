package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// CurrentFingerprints holds freshly computed digests for comparison. A nil
// field means the category is not being supplied and is skipped, not treated
// as matching.
type CurrentFingerprints struct {
	CompanyProfile *string
	Requirements   *string
	ReferenceDocs  *string
	Question       *string
}

type StalenessResult struct {
	IsStale           bool             `json:"is_stale"`
	ChangedCategories []types.Category `json:"changed_categories"`
}

// AnswerStaleness is the per-answer report for callers deciding whether to
// offer regeneration.
type AnswerStaleness struct {
	AnswerID    uuid.UUID       `json:"answer_id"`
	Generated   bool            `json:"generated"`
	GeneratedAt *time.Time      `json:"generated_at,omitempty"`
	Result      StalenessResult `json:"result"`
}

type StalenessDetector interface {
	// Compare never fails: stale is a normal state, not an error. A nil
	// stored context means the answer was never AI-generated and therefore
	// cannot be stale.
	Compare(stored *types.GenerationContext, current CurrentFingerprints) StalenessResult
	CheckAnswer(ctx context.Context, userID, answerID uuid.UUID) (*AnswerStaleness, error)
}

type stalenessDetector struct {
	log          *logger.Logger
	answerRepo   repos.AnswerRepo
	versionRepo  repos.AnswerVersionRepo
	projectRepo  repos.ProjectRepo
	questionRepo repos.QuestionRepo
	snapshots    SnapshotService
	contextStore GenerationContextStore
}

func NewStalenessDetector(
	baseLog *logger.Logger,
	answerRepo repos.AnswerRepo,
	versionRepo repos.AnswerVersionRepo,
	projectRepo repos.ProjectRepo,
	questionRepo repos.QuestionRepo,
	snapshots SnapshotService,
	contextStore GenerationContextStore,
) StalenessDetector {
	return &stalenessDetector{
		log:          baseLog.With("service", "StalenessDetector"),
		answerRepo:   answerRepo,
		versionRepo:  versionRepo,
		projectRepo:  projectRepo,
		questionRepo: questionRepo,
		snapshots:    snapshots,
		contextStore: contextStore,
	}
}

func (sd *stalenessDetector) Compare(stored *types.GenerationContext, current CurrentFingerprints) StalenessResult {
	result := StalenessResult{ChangedCategories: []types.Category{}}
	if stored == nil {
		return result
	}

	check := func(cat types.Category, cur *string) {
		if cur == nil {
			return
		}
		// Hash equality only. Equal hashes from different inputs are an
		// accepted false negative.
		if stored.Hash(cat) != *cur {
			result.ChangedCategories = append(result.ChangedCategories, cat)
		}
	}
	check(types.CategoryCompanyProfile, current.CompanyProfile)
	check(types.CategoryRequirements, current.Requirements)
	check(types.CategoryReferenceDocs, current.ReferenceDocs)
	check(types.CategoryQuestion, current.Question)

	result.IsStale = len(result.ChangedCategories) > 0
	return result
}

func (sd *stalenessDetector) CheckAnswer(ctx context.Context, userID, answerID uuid.UUID) (*AnswerStaleness, error) {
	answer, err := sd.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, apperrors.ErrNotFound)
	}
	version, err := sd.versionRepo.GetByID(ctx, nil, answer.VersionID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return nil, fmt.Errorf("version %s: %w", answer.VersionID, apperrors.ErrNotFound)
	}
	project, err := sd.projectRepo.GetByID(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}

	stored, err := sd.contextStore.Read(ctx, answerID)
	if err != nil {
		return nil, err
	}

	report := &AnswerStaleness{AnswerID: answerID}
	if stored == nil {
		report.Result = sd.Compare(nil, CurrentFingerprints{})
		return report, nil
	}
	report.Generated = true
	report.GeneratedAt = &stored.GeneratedAt

	snapshot, err := sd.snapshots.CurrentForProject(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, err
	}
	current := CurrentFingerprints{
		CompanyProfile: &snapshot.ProfileHash,
		Requirements:   &snapshot.RequirementsHash,
		ReferenceDocs:  &snapshot.ReferenceDocsHash,
	}

	// A deleted question leaves the question category unsupplied; template
	// drift is the sync analyzer's report, not a staleness signal.
	question, err := sd.questionRepo.GetByID(ctx, nil, answer.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question != nil {
		questionHash := FingerprintQuestion(question.Body)
		current.Question = &questionHash
	}

	report.Result = sd.Compare(stored, current)
	return report, nil
}
