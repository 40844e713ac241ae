package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceDoc is an uploaded supporting document after text extraction. The
// upload/parsing pipeline lives outside this service; we only read the
// extracted text.
type ReferenceDoc struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project       *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	FileName      string         `gorm:"column:file_name;not null" json:"file_name"`
	ExtractedText string         `gorm:"column:extracted_text" json:"extracted_text"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReferenceDoc) TableName() string { return "reference_doc" }
