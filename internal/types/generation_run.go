package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusWaiting    RunStatus = "waiting"
	RunStatusProcessing RunStatus = "processing"
	RunStatusDone       RunStatus = "done"
	RunStatusError      RunStatus = "error"
)

// GenerationRun tracks the batch generation job for one version. At most one
// row exists per version (unique index); claiming it is a single conditional
// UPDATE so concurrent triggers cannot both acquire it. This is advisory
// best-effort state, not a durable queue: a process restart strands the row in
// "processing" until a caller retriggers after it goes stale.
type GenerationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VersionID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"version_id"`
	Version    *AnswerVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:VersionID;references:ID" json:"version,omitempty"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status     RunStatus      `gorm:"column:status;not null;default:waiting" json:"status"`
	Attempts   int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError  *string        `gorm:"column:last_error" json:"last_error,omitempty"`
	Result     datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GenerationRun) TableName() string { return "generation_run" }
