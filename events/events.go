package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a notification emitted by the core after a command commits.
// Events are advisory: consumers must tolerate loss and duplication.
type Event interface {
	// Name returns a stable dotted identifier for the event type.
	Name() string
}

// RunCreated is emitted when a test run and its executions are created.
type RunCreated struct {
	RunID      uuid.UUID
	PlanID     uuid.UUID
	Executions int
	OccurredAt time.Time
}

func (RunCreated) Name() string { return "run.created" }

// ExecutionStatusChanged is emitted when an execution's status changes.
// Statuses travel as plain strings so consumers need no model imports.
type ExecutionStatusChanged struct {
	ExecutionID uuid.UUID
	RunID       uuid.UUID
	CaseID      uuid.UUID
	From        string
	To          string
	ActorID     uuid.UUID
	OccurredAt  time.Time
}

func (ExecutionStatusChanged) Name() string { return "execution.status_changed" }

// RunFinished is emitted when a run closes, whether explicitly or because
// its last execution reached a terminal status.
type RunFinished struct {
	RunID      uuid.UUID
	PlanID     uuid.UUID
	OccurredAt time.Time
}

func (RunFinished) Name() string { return "run.finished" }
