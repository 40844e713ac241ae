package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type CompanyProfileRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, profile *types.CompanyProfile) (*types.CompanyProfile, error)
	GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.CompanyProfile, error)
}

type companyProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyProfileRepo(db *gorm.DB, baseLog *logger.Logger) CompanyProfileRepo {
	repoLog := baseLog.With("repo", "CompanyProfileRepo")
	return &companyProfileRepo{db: db, log: repoLog}
}

func (r *companyProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.CompanyProfile) (*types.CompanyProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if profile == nil {
		return nil, nil
	}
	existing, err := r.GetByProjectID(ctx, transaction, profile.ProjectID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := transaction.WithContext(ctx).Create(profile).Error; err != nil {
			return nil, err
		}
		return profile, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.CompanyProfile{}).
		Where("id = ?", existing.ID).
		Update("fields", profile.Fields).Error; err != nil {
		return nil, err
	}
	existing.Fields = profile.Fields
	return existing, nil
}

func (r *companyProfileRepo) GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.CompanyProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return nil, nil
	}
	var profile types.CompanyProfile
	err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
