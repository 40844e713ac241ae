package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Requirement is one extracted requirement line for a project. Title may be
// edited freely; identity is carried by ID alone.
type Requirement struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Content   string         `gorm:"column:content" json:"content"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Requirement) TableName() string { return "requirement" }
