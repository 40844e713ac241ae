package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
)

// SyncStatus is transient, recomputed on demand and never persisted. It is
// purely advisory: the caller decides whether drift warrants a new version.
type SyncStatus struct {
	TemplateQuestionCount int  `json:"template_question_count"`
	VersionAnswerCount    int  `json:"version_answer_count"`
	OrphanAnswerCount     int  `json:"orphan_answer_count"`
	MissingQuestionCount  int  `json:"missing_question_count"`
	InSync                bool `json:"in_sync"`
}

type SyncAnalyzer interface {
	Analyze(ctx context.Context, userID, versionID uuid.UUID) (*SyncStatus, error)
}

type syncAnalyzer struct {
	log          *logger.Logger
	projectRepo  repos.ProjectRepo
	questionRepo repos.QuestionRepo
	versionRepo  repos.AnswerVersionRepo
	answerRepo   repos.AnswerRepo
}

func NewSyncAnalyzer(
	baseLog *logger.Logger,
	projectRepo repos.ProjectRepo,
	questionRepo repos.QuestionRepo,
	versionRepo repos.AnswerVersionRepo,
	answerRepo repos.AnswerRepo,
) SyncAnalyzer {
	return &syncAnalyzer{
		log:          baseLog.With("service", "SyncAnalyzer"),
		projectRepo:  projectRepo,
		questionRepo: questionRepo,
		versionRepo:  versionRepo,
		answerRepo:   answerRepo,
	}
}

func (sa *syncAnalyzer) Analyze(ctx context.Context, userID, versionID uuid.UUID) (*SyncStatus, error) {
	version, err := sa.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return nil, fmt.Errorf("version %s: %w", versionID, apperrors.ErrNotFound)
	}
	project, err := sa.projectRepo.GetByID(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}

	liveQuestions, err := sa.questionRepo.GetByProjectID(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load live questions: %w", err)
	}
	answers, err := sa.answerRepo.GetByVersionID(ctx, nil, versionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	// Matching is by stable question ID only. Title matching was considered
	// and rejected: a title edit silently breaks the match.
	live := make(map[uuid.UUID]struct{}, len(liveQuestions))
	for _, q := range liveQuestions {
		live[q.ID] = struct{}{}
	}
	answered := make(map[uuid.UUID]struct{}, len(answers))
	orphans := 0
	for _, a := range answers {
		answered[a.QuestionID] = struct{}{}
		if _, ok := live[a.QuestionID]; !ok {
			orphans++
		}
	}
	missing := 0
	for _, q := range liveQuestions {
		if _, ok := answered[q.ID]; !ok {
			missing++
		}
	}

	return &SyncStatus{
		TemplateQuestionCount: len(liveQuestions),
		VersionAnswerCount:    len(answers),
		OrphanAnswerCount:     orphans,
		MissingQuestionCount:  missing,
		InSync:                orphans == 0 && missing == 0,
	}, nil
}
