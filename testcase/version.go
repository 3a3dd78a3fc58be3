package testcase

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseVersion is an immutable snapshot of a test case's content at one
// version number. Rows are written when a case is created or revised and
// are never changed once an execution pins them.
type CaseVersion struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	CaseID    uuid.UUID `json:"case_id" gorm:"type:char(36);not null;uniqueIndex:uniq_case_versions_case_version,priority:1"`
	Version   uint      `json:"version" gorm:"not null;uniqueIndex:uniq_case_versions_case_version,priority:2"`
	Summary   string    `json:"summary" gorm:"not null"`
	Steps     Steps     `json:"steps" gorm:"type:json"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy uuid.UUID `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the snapshot arena next to test_cases in the schema.
func (CaseVersion) TableName() string {
	return "test_case_versions"
}

// BeforeCreate hook to generate UUID before creating a new case version
func (cv *CaseVersion) BeforeCreate(tx *gorm.DB) error {
	if cv.ID == uuid.Nil {
		cv.ID = uuid.New()
	}
	return nil
}
