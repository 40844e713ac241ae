package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type ReferenceDocRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.ReferenceDoc) ([]*types.ReferenceDoc, error)
	GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.ReferenceDoc, error)
}

type referenceDocRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReferenceDocRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceDocRepo {
	repoLog := baseLog.With("repo", "ReferenceDocRepo")
	return &referenceDocRepo{db: db, log: repoLog}
}

func (r *referenceDocRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.ReferenceDoc) ([]*types.ReferenceDoc, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.ReferenceDoc{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *referenceDocRepo) GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.ReferenceDoc, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ReferenceDoc
	if projectID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
