package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// AnswerService covers manual edits. Manual edits do not touch the stored
// generation context: the snapshot records what the AI saw, not what a human
// typed afterwards.
type AnswerService interface {
	UpdateText(ctx context.Context, userID, answerID uuid.UUID, text string, status types.AnswerStatus) (*types.Answer, error)
	Get(ctx context.Context, userID, answerID uuid.UUID) (*types.Answer, error)
}

type answerService struct {
	log         *logger.Logger
	answerRepo  repos.AnswerRepo
	versionRepo repos.AnswerVersionRepo
	projectRepo repos.ProjectRepo
	lifecycle   VersionLifecycleManager
}

func NewAnswerService(
	baseLog *logger.Logger,
	answerRepo repos.AnswerRepo,
	versionRepo repos.AnswerVersionRepo,
	projectRepo repos.ProjectRepo,
	lifecycle VersionLifecycleManager,
) AnswerService {
	return &answerService{
		log:         baseLog.With("service", "AnswerService"),
		answerRepo:  answerRepo,
		versionRepo: versionRepo,
		projectRepo: projectRepo,
		lifecycle:   lifecycle,
	}
}

func (s *answerService) loadOwned(ctx context.Context, userID, answerID uuid.UUID) (*types.Answer, error) {
	answer, err := s.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, apperrors.ErrNotFound)
	}
	version, err := s.versionRepo.GetByID(ctx, nil, answer.VersionID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version == nil {
		return nil, fmt.Errorf("version %s: %w", answer.VersionID, apperrors.ErrNotFound)
	}
	project, err := s.projectRepo.GetByID(ctx, nil, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return answer, nil
}

func (s *answerService) UpdateText(ctx context.Context, userID, answerID uuid.UUID, text string, status types.AnswerStatus) (*types.Answer, error) {
	switch status {
	case types.AnswerStatusEmpty, types.AnswerStatusDraft, types.AnswerStatusFinal:
	default:
		return nil, fmt.Errorf("unknown answer status %q: %w", status, apperrors.ErrValidation)
	}

	answer, err := s.loadOwned(ctx, userID, answerID)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.AssertMutable(ctx, nil, answer.VersionID); err != nil {
		return nil, err
	}

	if err := s.answerRepo.UpdateFields(ctx, nil, answerID, map[string]interface{}{
		"text":   text,
		"status": status,
	}); err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}
	return s.answerRepo.GetByID(ctx, nil, answerID)
}

func (s *answerService) Get(ctx context.Context, userID, answerID uuid.UUID) (*types.Answer, error) {
	return s.loadOwned(ctx, userID, answerID)
}
