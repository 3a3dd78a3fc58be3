package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrStepNoteNotFound is returned when a step note is not found.
	ErrStepNoteNotFound = errors.New("step note not found")

	// ErrStepIndexOutOfRange is returned when the step index does not
	// exist in the case version the execution pins.
	ErrStepIndexOutOfRange = errors.New("step index out of range for pinned case version")
)

// StepNote is an annotation a tester makes against one step of the case
// version an execution pins, e.g. "step 3: dialog never appeared". One
// note per (execution, step index); re-noting a step replaces the text.
type StepNote struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ExecutionID uuid.UUID `json:"execution_id" gorm:"type:char(36);not null;uniqueIndex:uniq_execution_step_notes_step,priority:1"`
	StepIndex   int       `json:"step_index" gorm:"not null;uniqueIndex:uniq_execution_step_notes_step,priority:2"`
	Notes       string    `json:"notes" gorm:"type:text"`
	NotedBy     uuid.UUID `json:"noted_by" gorm:"type:char(36)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (sn *StepNote) TableName() string {
	return "test_execution_step_notes"
}

// BeforeCreate hook to generate UUID before creating a new step note.
func (sn *StepNote) BeforeCreate(tx *gorm.DB) error {
	if sn.ID == uuid.Nil {
		sn.ID = uuid.New()
	}
	return nil
}
