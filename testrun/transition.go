package testrun

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionRecord is one entry in the append-only execution history.
// Records are written inside the same transaction as the status change
// they describe and are never updated or deleted afterwards; reads go
// through HistoryStore. FromStatus is nil for the creation entry written
// when the execution comes into existence.
//
// RunID and CaseID repeat the execution's references so case-level
// history spans runs without joins.
type TransitionRecord struct {
	ID          uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	ExecutionID uuid.UUID        `json:"execution_id" gorm:"type:char(36);not null;index:idx_transitions_execution"`
	RunID       uuid.UUID        `json:"run_id" gorm:"type:char(36);not null;index:idx_transitions_run"`
	CaseID      uuid.UUID        `json:"case_id" gorm:"type:char(36);not null;index:idx_transitions_case"`
	FromStatus  *ExecutionStatus `json:"from_status,omitempty" gorm:"type:varchar(16)"`
	ToStatus    ExecutionStatus  `json:"to_status" gorm:"type:varchar(16);not null"`
	ActorID     uuid.UUID        `json:"actor_id" gorm:"type:char(36);not null"`
	Comment     string           `json:"comment" gorm:"type:text"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index:idx_transitions_created"`
}

// TableName keeps the ledger next to test_executions in the schema.
func (TransitionRecord) TableName() string {
	return "test_execution_transitions"
}

// BeforeCreate hook to generate UUID before creating a new transition record
func (r *TransitionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// creationRecord builds the ledger entry for a newly created execution.
func creationRecord(exec *TestExecution, actorID uuid.UUID) *TransitionRecord {
	return &TransitionRecord{
		ExecutionID: exec.ID,
		RunID:       exec.RunID,
		CaseID:      exec.CaseID,
		FromStatus:  nil,
		ToStatus:    exec.Status,
		ActorID:     actorID,
	}
}
