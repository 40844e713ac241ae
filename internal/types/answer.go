package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnswerStatus string

const (
	AnswerStatusEmpty AnswerStatus = "empty"
	AnswerStatusDraft AnswerStatus = "draft"
	AnswerStatusFinal AnswerStatus = "final"
)

// Answer is one generated answer unit inside a version. QuestionID is a weak
// reference into the live template: the question may have been deleted since
// this version was created. GenerationContext is nil until the answer has been
// AI-generated at least once.
type Answer struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VersionID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"version_id"`
	Version           *AnswerVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:VersionID;references:ID" json:"version,omitempty"`
	QuestionID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"question_id"`
	Text              *string        `gorm:"column:text" json:"text,omitempty"`
	Status            AnswerStatus   `gorm:"column:status;not null;default:empty" json:"status"`
	GenerationContext datatypes.JSON `gorm:"column:generation_context;type:jsonb" json:"generation_context,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Answer) TableName() string { return "answer" }
