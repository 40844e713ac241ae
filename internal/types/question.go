package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is one entry of the live question template for a project. The
// template is mutable; answers reference questions by ID only, so a deleted
// question leaves orphaned answers behind in frozen versions.
type Question struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project    *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	ParentID   *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Title      string         `gorm:"column:title;not null" json:"title"`
	Body       string         `gorm:"column:body" json:"body"`
	Required   bool           `gorm:"column:required;not null;default:false" json:"required"`
	OrderIndex int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }
