package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerVersion is a named bundle of answers for a project. VersionNumber is
// monotonically increasing per project. Once IsFrozen flips to true it never
// flips back; no answer under a frozen version may be mutated.
type AnswerVersion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project       *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	PredecessorID *uuid.UUID     `gorm:"type:uuid;index" json:"predecessor_id,omitempty"`
	VersionNumber int            `gorm:"column:version_number;not null" json:"version_number"`
	IsFrozen      bool           `gorm:"column:is_frozen;not null;default:false" json:"is_frozen"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AnswerVersion) TableName() string { return "answer_version" }
