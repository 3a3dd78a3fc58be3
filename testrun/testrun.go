package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRunNotFound is returned when a test run is not found.
	ErrRunNotFound = errors.New("test run not found")

	// ErrInvalidPlanID is returned when plan_id is not set.
	ErrInvalidPlanID = errors.New("plan_id is required")

	// ErrInvalidSummary is returned when a run summary is empty.
	ErrInvalidSummary = errors.New("run summary is required")

	// ErrInvalidManager is returned when manager_id is not set.
	ErrInvalidManager = errors.New("manager_id is required")

	// ErrInvalidActor is returned when an operation requires an actor and none is given.
	ErrInvalidActor = errors.New("actor_id is required")

	// ErrInvalidStatus is returned when a status is not recognised.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptySelection is returned when a run is created without cases.
	ErrEmptySelection = errors.New("a run requires at least one test case")

	// ErrCaseDisabled is returned when a disabled case is selected for a new run.
	ErrCaseDisabled = errors.New("test case is disabled")

	// ErrRunFinished is returned when an operation requires an open run.
	ErrRunFinished = errors.New("test run is already finished")

	// ErrRunOpen is returned when an operation requires a finished run.
	ErrRunOpen = errors.New("test run is already open")
)

// RunStatus represents the lifecycle state of a test run.
type RunStatus string

const (
	// RunStatusOpen marks a run whose executions are still being worked.
	RunStatusOpen RunStatus = "open"

	// RunStatusFinished marks a run whose executions have all reached a
	// terminal status, or that a manager closed explicitly.
	RunStatusFinished RunStatus = "finished"
)

// IsValid checks if the status is a recognised run status.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusOpen, RunStatusFinished:
		return true
	}
	return false
}

// TestRun is one round of testing a plan's cases against a build. The
// execution set is fixed when the run is created; plan membership changes
// afterwards never touch it.
type TestRun struct {
	ID            uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	PlanID        uuid.UUID  `json:"plan_id" gorm:"type:char(36);not null;index:idx_test_runs_plan"`
	EnvironmentID *uuid.UUID `json:"environment_id,omitempty" gorm:"type:char(36);index:idx_test_runs_environment"`
	Build         string     `json:"build"`
	Summary       string     `json:"summary" gorm:"not null"`
	ManagerID     uuid.UUID  `json:"manager_id" gorm:"type:char(36);not null;index:idx_test_runs_manager"`
	Status        RunStatus  `json:"status" gorm:"type:varchar(16);not null;default:'open';index:idx_test_runs_status"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test run
func (tr *TestRun) BeforeCreate(tx *gorm.DB) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	return nil
}

// Validate checks if the test run has valid required fields.
func (tr *TestRun) Validate() error {
	if tr.PlanID == uuid.Nil {
		return ErrInvalidPlanID
	}
	if tr.Summary == "" {
		return ErrInvalidSummary
	}
	if tr.ManagerID == uuid.Nil {
		return ErrInvalidManager
	}
	if !tr.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsFinished reports whether the run has been closed.
func (tr *TestRun) IsFinished() bool {
	return tr.Status == RunStatusFinished
}
