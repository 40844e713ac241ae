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

type AnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, answers []*types.Answer) ([]*types.Answer, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Answer, error)
	GetByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Answer, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	repoLog := baseLog.With("repo", "AnswerRepo")
	return &answerRepo{db: db, log: repoLog}
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, answers []*types.Answer) ([]*types.Answer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*types.Answer{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Answer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var answer types.Answer
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) GetByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Answer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Answer
	if versionID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *answerRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Answer{}).
		Where("id = ?", id).
		Updates(updates).Error
}
