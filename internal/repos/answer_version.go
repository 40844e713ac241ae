package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type AnswerVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, versions []*types.AnswerVersion) ([]*types.AnswerVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnswerVersion, error)
	GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.AnswerVersion, error)
	// Freeze flips is_frozen to true. Freezing an already-frozen version is a
	// no-op; the reverse transition does not exist.
	Freeze(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type answerVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerVersionRepo(db *gorm.DB, baseLog *logger.Logger) AnswerVersionRepo {
	repoLog := baseLog.With("repo", "AnswerVersionRepo")
	return &answerVersionRepo{db: db, log: repoLog}
}

func (r *answerVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.AnswerVersion) ([]*types.AnswerVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(versions) == 0 {
		return []*types.AnswerVersion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *answerVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnswerVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var version types.AnswerVersion
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *answerVersionRepo) GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.AnswerVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AnswerVersion
	if projectID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *answerVersionRepo) Freeze(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AnswerVersion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_frozen":  true,
			"updated_at": time.Now(),
		}).Error
}
