package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// GenerationContextStore attaches fingerprint snapshots to answers at
// generation time and reads them back. Attaching replaces the whole snapshot;
// a stored snapshot is never edited in place.
type GenerationContextStore interface {
	Attach(ctx context.Context, tx *gorm.DB, answerID uuid.UUID, gc types.GenerationContext) error
	Read(ctx context.Context, answerID uuid.UUID) (*types.GenerationContext, error)
}

type generationContextStore struct {
	log        *logger.Logger
	answerRepo repos.AnswerRepo
	lifecycle  VersionLifecycleManager
}

func NewGenerationContextStore(
	baseLog *logger.Logger,
	answerRepo repos.AnswerRepo,
	lifecycle VersionLifecycleManager,
) GenerationContextStore {
	return &generationContextStore{
		log:        baseLog.With("service", "GenerationContextStore"),
		answerRepo: answerRepo,
		lifecycle:  lifecycle,
	}
}

func (s *generationContextStore) Attach(ctx context.Context, tx *gorm.DB, answerID uuid.UUID, gc types.GenerationContext) error {
	answer, err := s.answerRepo.GetByID(ctx, tx, answerID)
	if err != nil {
		return fmt.Errorf("load answer: %w", err)
	}
	if answer == nil {
		return fmt.Errorf("answer %s: %w", answerID, apperrors.ErrNotFound)
	}
	if err := s.lifecycle.AssertMutable(ctx, tx, answer.VersionID); err != nil {
		return err
	}
	raw, err := json.Marshal(gc)
	if err != nil {
		return fmt.Errorf("encode generation context: %w", err)
	}
	return s.answerRepo.UpdateFields(ctx, tx, answerID, map[string]interface{}{
		"generation_context": datatypes.JSON(raw),
	})
}

func (s *generationContextStore) Read(ctx context.Context, answerID uuid.UUID) (*types.GenerationContext, error) {
	answer, err := s.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, apperrors.ErrNotFound)
	}
	if len(answer.GenerationContext) == 0 {
		return nil, nil
	}
	var gc types.GenerationContext
	if err := json.Unmarshal(answer.GenerationContext, &gc); err != nil {
		return nil, fmt.Errorf("decode generation context: %w", err)
	}
	return &gc, nil
}
