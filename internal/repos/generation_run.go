package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type GenerationRunRepo interface {
	GetByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.GenerationRun, error)
	// Claim acquires the single run slot for a version with one conditional
	// UPDATE (or an INSERT guarded by the unique index). Returns the run and
	// whether this caller acquired it; acquired == false means another run is
	// already processing. A processing row whose started_at is older than
	// staleAfter is treated as abandoned (crashed or timed-out holder) and can
	// be taken over.
	Claim(ctx context.Context, tx *gorm.DB, versionID, userID uuid.UUID, staleAfter time.Duration) (*types.GenerationRun, bool, error)
	Finish(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RunStatus, result datatypes.JSON, lastError *string) error
}

type generationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	repoLog := baseLog.With("repo", "GenerationRunRepo")
	return &generationRunRepo{db: db, log: repoLog}
}

func (r *generationRunRepo) GetByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.GenerationRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if versionID == uuid.Nil {
		return nil, nil
	}
	var run types.GenerationRun
	err := transaction.WithContext(ctx).
		Where("version_id = ?", versionID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *generationRunRepo) Claim(ctx context.Context, tx *gorm.DB, versionID, userID uuid.UUID, staleAfter time.Duration) (*types.GenerationRun, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if versionID == uuid.Nil || userID == uuid.Nil {
		return nil, false, nil
	}

	now := time.Now()

	// Single-statement transition: settled rows and stale processing rows are
	// claimable, a live processing row is not.
	res := transaction.WithContext(ctx).
		Model(&types.GenerationRun{}).
		Where("version_id = ? AND (status IN ? OR (status = ? AND started_at < ?))",
			versionID,
			[]types.RunStatus{
				types.RunStatusWaiting,
				types.RunStatusDone,
				types.RunStatusError,
			},
			types.RunStatusProcessing,
			now.Add(-staleAfter),
		).
		Updates(map[string]interface{}{
			"status":      types.RunStatusProcessing,
			"user_id":     userID,
			"attempts":    gorm.Expr("attempts + 1"),
			"started_at":  now,
			"finished_at": nil,
			"last_error":  nil,
			"updated_at":  now,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		run, err := r.GetByVersionID(ctx, transaction, versionID)
		if err != nil {
			return nil, false, err
		}
		return run, true, nil
	}

	existing, err := r.GetByVersionID(ctx, transaction, versionID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		// Row exists but was not claimable: someone else holds it.
		return existing, false, nil
	}

	run := &types.GenerationRun{
		ID:        uuid.New(),
		VersionID: versionID,
		UserID:    userID,
		Status:    types.RunStatusProcessing,
		Attempts:  1,
		Result:    datatypes.JSON([]byte(`{}`)),
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		// Unique index on version_id: a concurrent caller inserted first.
		concurrent, getErr := r.GetByVersionID(ctx, transaction, versionID)
		if getErr == nil && concurrent != nil {
			return concurrent, false, nil
		}
		return nil, false, err
	}
	return run, true, nil
}

func (r *generationRunRepo) Finish(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RunStatus, result datatypes.JSON, lastError *string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": now,
		"updated_at":  now,
		"last_error":  lastError,
	}
	if result != nil {
		updates["result"] = result
	}
	return transaction.WithContext(ctx).
		Model(&types.GenerationRun{}).
		Where("id = ? AND status = ?", id, types.RunStatusProcessing).
		Updates(updates).Error
}
