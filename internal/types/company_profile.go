package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompanyProfile holds the free-form field map the sales team maintains per
// project. Fields is a flat map of field name to nullable string value.
type CompanyProfile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	Project   *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Fields    datatypes.JSON `gorm:"column:fields;type:jsonb" json:"fields"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompanyProfile) TableName() string { return "company_profile" }
