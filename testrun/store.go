package testrun

import (
	"context"

	"github.com/google/uuid"
)

// UpdateSetter is a function that updates a test run field. Setters cover
// metadata only; Status and FinishedAt change through Finish and Reopen.
type UpdateSetter func(*TestRun) error

// NewRun carries everything needed to build a run. CaseIDs must be
// current members of the plan; duplicates collapse to one execution.
type NewRun struct {
	PlanID        uuid.UUID
	CaseIDs       []uuid.UUID
	EnvironmentID *uuid.UUID
	Build         string
	Summary       string
	ManagerID     uuid.UUID
	AssigneeID    *uuid.UUID
}

// Store defines the interface for test run persistence operations.
type Store interface {
	// CreateRun creates a run and one idle execution per selected case,
	// pinning each case's current version. The whole set commits or none
	// of it does.
	CreateRun(ctx context.Context, params NewRun) (*TestRun, error)

	// CloneRun creates a new open run repeating another run's executions:
	// same cases, same pinned versions, statuses reset to idle.
	CloneRun(ctx context.Context, runID, managerID uuid.UUID) (*TestRun, error)

	// GetByID retrieves a test run by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*TestRun, error)

	// Update updates a test run's metadata with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// ListByPlan retrieves a paginated list of runs for a plan.
	ListByPlan(ctx context.Context, planID uuid.UUID, limit, offset int) ([]*TestRun, error)

	// CountByPlan returns the total count of runs for a plan.
	CountByPlan(ctx context.Context, planID uuid.UUID) (int, error)

	// Finish closes an open run regardless of remaining execution work.
	Finish(ctx context.Context, id, actorID uuid.UUID) error

	// Reopen reverses Finish. It is the only way a finished run becomes
	// open again; execution re-runs never reopen a run on their own.
	Reopen(ctx context.Context, id, actorID uuid.UUID) error
}
