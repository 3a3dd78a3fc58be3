package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrExecutionNotFound is returned when a test execution is not found.
	ErrExecutionNotFound = errors.New("test execution not found")

	// ErrStaleExecution is returned when a write carries an outdated token.
	// The caller should re-read the execution and retry.
	ErrStaleExecution = errors.New("test execution was modified by someone else")

	// ErrInvalidNote is returned when a note has no text.
	ErrInvalidNote = errors.New("note text is required")
)

// ExecutionStatus represents the result state of a test execution.
type ExecutionStatus string

const (
	// ExecutionStatusIdle means the execution has not been started.
	ExecutionStatusIdle ExecutionStatus = "idle"

	// ExecutionStatusRunning means a tester is working the execution.
	ExecutionStatusRunning ExecutionStatus = "running"

	// ExecutionStatusPassed means the case behaved as specified.
	ExecutionStatusPassed ExecutionStatus = "passed"

	// ExecutionStatusFailed means the case did not behave as specified.
	ExecutionStatusFailed ExecutionStatus = "failed"

	// ExecutionStatusError means the test could not be carried out.
	ExecutionStatusError ExecutionStatus = "error"

	// ExecutionStatusBlocked means a dependency prevented the test.
	ExecutionStatusBlocked ExecutionStatus = "blocked"

	// ExecutionStatusWaived means the result is excluded from pass-rate
	// arithmetic by decision.
	ExecutionStatusWaived ExecutionStatus = "waived"
)

// IsValid checks if the status is a recognised execution status.
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusIdle, ExecutionStatusRunning, ExecutionStatusPassed,
		ExecutionStatusFailed, ExecutionStatusError, ExecutionStatusBlocked,
		ExecutionStatusWaived:
		return true
	}
	return false
}

// IsTerminal reports whether the status counts as completed. Terminal is
// not permanent: any execution may be re-run to any status.
func (s ExecutionStatus) IsTerminal() bool {
	return s != ExecutionStatusIdle && s != ExecutionStatusRunning
}

// TestExecution tracks one case within one run. The case content is
// pinned by (CaseID, CaseVersion) against the snapshot arena, so later
// case revisions never change what this execution tested.
//
// Token implements optimistic concurrency: every successful write
// advances it, and SetStatus rejects writes carrying an old value.
type TestExecution struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	RunID       uuid.UUID       `json:"run_id" gorm:"type:char(36);not null;uniqueIndex:uniq_test_executions_run_case,priority:1"`
	CaseID      uuid.UUID       `json:"case_id" gorm:"type:char(36);not null;uniqueIndex:uniq_test_executions_run_case,priority:2;index:idx_test_executions_case"`
	CaseVersion uint            `json:"case_version" gorm:"not null"`
	SortKey     int             `json:"sort_key" gorm:"not null;default:0"`
	Status      ExecutionStatus `json:"status" gorm:"type:varchar(16);not null;default:'idle';index:idx_test_executions_status"`
	AssigneeID  *uuid.UUID      `json:"assignee_id,omitempty" gorm:"type:char(36);index:idx_test_executions_assignee"`
	TestedBy    *uuid.UUID      `json:"tested_by,omitempty" gorm:"type:char(36)"`
	Token       uint            `json:"token" gorm:"not null;default:1"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test execution
func (te *TestExecution) BeforeCreate(tx *gorm.DB) error {
	if te.ID == uuid.Nil {
		te.ID = uuid.New()
	}
	return nil
}

// appendNote adds a line to the execution's accumulated notes.
func (te *TestExecution) appendNote(text string) {
	if te.Notes == "" {
		te.Notes = text
		return
	}
	te.Notes = te.Notes + "\n" + text
}
