package testplan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanCase records that a plan includes a case, and where it sits in the
// plan's order. Removing a membership never touches the case itself, and
// membership changes only affect runs created afterwards.
type PlanCase struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	PlanID    uuid.UUID `json:"plan_id" gorm:"type:char(36);not null;uniqueIndex:uniq_plan_cases_plan_case,priority:1"`
	CaseID    uuid.UUID `json:"case_id" gorm:"type:char(36);not null;uniqueIndex:uniq_plan_cases_plan_case,priority:2"`
	SortKey   int       `json:"sort_key" gorm:"not null;default:0"`
	AddedBy   uuid.UUID `json:"added_by" gorm:"type:char(36);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps membership rows next to test_plans in the schema.
func (PlanCase) TableName() string {
	return "test_plan_cases"
}

// BeforeCreate hook to generate UUID before creating a new membership
func (pc *PlanCase) BeforeCreate(tx *gorm.DB) error {
	if pc.ID == uuid.Nil {
		pc.ID = uuid.New()
	}
	return nil
}
