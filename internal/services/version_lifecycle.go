package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// VersionLifecycleManager owns the MUTABLE -> FROZEN state machine. Freezing
// is one-way and idempotent; every answer write anywhere in the service goes
// through AssertMutable first.
type VersionLifecycleManager interface {
	CreateInitial(ctx context.Context, userID, projectID uuid.UUID) (*types.AnswerVersion, error)
	AssertMutable(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) error
	// CloneAsNextVersion freezes the source and materializes a new mutable
	// version against the live template. It does not refuse a drift-free
	// clone; callers should consult the sync analyzer first.
	CloneAsNextVersion(ctx context.Context, userID, sourceVersionID uuid.UUID) (*types.AnswerVersion, error)
	GetVersion(ctx context.Context, userID, versionID uuid.UUID) (*types.AnswerVersion, []*types.Answer, error)
}

type versionLifecycleManager struct {
	db           *gorm.DB
	log          *logger.Logger
	projectRepo  repos.ProjectRepo
	questionRepo repos.QuestionRepo
	versionRepo  repos.AnswerVersionRepo
	answerRepo   repos.AnswerRepo
}

func NewVersionLifecycleManager(
	db *gorm.DB,
	baseLog *logger.Logger,
	projectRepo repos.ProjectRepo,
	questionRepo repos.QuestionRepo,
	versionRepo repos.AnswerVersionRepo,
	answerRepo repos.AnswerRepo,
) VersionLifecycleManager {
	return &versionLifecycleManager{
		db:           db,
		log:          baseLog.With("service", "VersionLifecycleManager"),
		projectRepo:  projectRepo,
		questionRepo: questionRepo,
		versionRepo:  versionRepo,
		answerRepo:   answerRepo,
	}
}

func (m *versionLifecycleManager) loadOwnedProject(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Project, error) {
	project, err := m.projectRepo.GetByID(ctx, tx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrNotFound)
	}
	if project.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return project, nil
}

func (m *versionLifecycleManager) CreateInitial(ctx context.Context, userID, projectID uuid.UUID) (*types.AnswerVersion, error) {
	var version *types.AnswerVersion

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := m.loadOwnedProject(ctx, tx, userID, projectID); err != nil {
			return err
		}
		existing, err := m.versionRepo.GetByProjectID(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("load versions: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("project already has versions, clone instead: %w", apperrors.ErrValidation)
		}

		questions, err := m.questionRepo.GetByProjectID(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		now := time.Now()
		version = &types.AnswerVersion{
			ID:            uuid.New(),
			ProjectID:     projectID,
			VersionNumber: 1,
			IsFrozen:      false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := m.versionRepo.Create(ctx, tx, []*types.AnswerVersion{version}); err != nil {
			return fmt.Errorf("create version: %w", err)
		}

		answers := make([]*types.Answer, 0, len(questions))
		for _, q := range questions {
			answers = append(answers, &types.Answer{
				ID:         uuid.New(),
				VersionID:  version.ID,
				QuestionID: q.ID,
				Status:     types.AnswerStatusEmpty,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		if _, err := m.answerRepo.Create(ctx, tx, answers); err != nil {
			return fmt.Errorf("create answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("Created initial version", "project_id", projectID, "version_id", version.ID)
	return version, nil
}

func (m *versionLifecycleManager) AssertMutable(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) error {
	version, err := m.versionRepo.GetByID(ctx, tx, versionID)
	if err != nil {
		return fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return fmt.Errorf("version %s: %w", versionID, apperrors.ErrNotFound)
	}
	if version.IsFrozen {
		return fmt.Errorf("version %d: %w", version.VersionNumber, apperrors.ErrFrozenVersion)
	}
	return nil
}

func (m *versionLifecycleManager) CloneAsNextVersion(ctx context.Context, userID, sourceVersionID uuid.UUID) (*types.AnswerVersion, error) {
	var next *types.AnswerVersion

	// One logical unit: partial failure rolls the new version back entirely,
	// leaving the source frozen state untouched.
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := m.versionRepo.GetByID(ctx, tx, sourceVersionID)
		if err != nil {
			return fmt.Errorf("load source version: %w", err)
		}
		if source == nil {
			return fmt.Errorf("version %s: %w", sourceVersionID, apperrors.ErrNotFound)
		}
		if _, err := m.loadOwnedProject(ctx, tx, userID, source.ProjectID); err != nil {
			return err
		}

		// Idempotent freeze: already-frozen sources pass through unchanged.
		if !source.IsFrozen {
			if err := m.versionRepo.Freeze(ctx, tx, source.ID); err != nil {
				return fmt.Errorf("freeze source version: %w", err)
			}
		}

		liveQuestions, err := m.questionRepo.GetByProjectID(ctx, tx, source.ProjectID)
		if err != nil {
			return fmt.Errorf("load live questions: %w", err)
		}
		sourceAnswers, err := m.answerRepo.GetByVersionID(ctx, tx, source.ID)
		if err != nil {
			return fmt.Errorf("load source answers: %w", err)
		}
		byQuestion := make(map[uuid.UUID]*types.Answer, len(sourceAnswers))
		for _, a := range sourceAnswers {
			byQuestion[a.QuestionID] = a
		}

		now := time.Now()
		next = &types.AnswerVersion{
			ID:            uuid.New(),
			ProjectID:     source.ProjectID,
			PredecessorID: &source.ID,
			VersionNumber: source.VersionNumber + 1,
			IsFrozen:      false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := m.versionRepo.Create(ctx, tx, []*types.AnswerVersion{next}); err != nil {
			return fmt.Errorf("create next version: %w", err)
		}

		// One answer per live question: matched answers copy text, status and
		// generation context verbatim; questions dropped from the template are
		// not carried forward and stay readable only in the frozen source.
		answers := make([]*types.Answer, 0, len(liveQuestions))
		for _, q := range liveQuestions {
			answer := &types.Answer{
				ID:         uuid.New(),
				VersionID:  next.ID,
				QuestionID: q.ID,
				Status:     types.AnswerStatusEmpty,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if src, ok := byQuestion[q.ID]; ok {
				answer.Text = src.Text
				answer.Status = src.Status
				answer.GenerationContext = src.GenerationContext
			}
			answers = append(answers, answer)
		}
		if _, err := m.answerRepo.Create(ctx, tx, answers); err != nil {
			return fmt.Errorf("create cloned answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("Cloned version", "source_id", sourceVersionID, "next_id", next.ID, "version_number", next.VersionNumber)
	return next, nil
}

func (m *versionLifecycleManager) GetVersion(ctx context.Context, userID, versionID uuid.UUID) (*types.AnswerVersion, []*types.Answer, error) {
	version, err := m.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return nil, nil, fmt.Errorf("version %s: %w", versionID, apperrors.ErrNotFound)
	}
	if _, err := m.loadOwnedProject(ctx, nil, userID, version.ProjectID); err != nil {
		return nil, nil, err
	}
	answers, err := m.answerRepo.GetByVersionID(ctx, nil, versionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load answers: %w", err)
	}
	return version, answers, nil
}
